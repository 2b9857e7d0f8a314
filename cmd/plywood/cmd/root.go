package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/rickaym/plywood/internal/app"
	"github.com/rickaym/plywood/internal/appconfig"
	"github.com/rickaym/plywood/internal/remote"
	"github.com/rickaym/plywood/internal/store"
	"github.com/rickaym/plywood/internal/syncer"
)

var development bool
var logFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "plywood",
	Short: "Plywood manages locally-installed code example galleries",
	Long: `Plywood synchronizes galleries of image+code examples from remote
repositories into a managed local store, keeps track of what is
installed, and serves the installed galleries to presentation
frontends. Set parameters with environment variables, for example:

export PLYWOOD_STORE_ROOT=/var/lib/plywood
export PLYWOOD_WORKERS=8
export PLYWOOD_DEFAULT_BRANCH=main
plywood import https://github.com/kolibril13/plywood-gallery-minimal-example
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVar(&development, "dev", false, "development environment")
	rootCmd.PersistentFlags().StringVar(&logFile, "log", "", "log file (default is STDOUT)")
}

// initConfig - no config file; use ENV variables e.g. export PLYWOOD_WORKERS=8
func initConfig() {
	viper.SetEnvPrefix("PLYWOOD")
	viper.AutomaticEnv()
}

func setupLogging(opts appconfig.Options) {

	if development || opts.Development {
		fmt.Println("Development mode - logging output to stdout")
		log.SetFormatter(&log.TextFormatter{})
		log.SetLevel(log.TraceLevel)
		log.SetOutput(os.Stdout)
		return
	}

	log.SetFormatter(&log.JSONFormatter{})

	level, err := log.ParseLevel(opts.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	name := logFile
	if name == "" {
		name = opts.LogFile
	}

	if name != "" {
		file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			log.SetOutput(file)
		} else {
			log.Info("Failed to log to file, using default stderr")
		}
	}
}

// newApp builds the orchestrator from the environment, with the
// terminal supplying approvals, batch choices and progress output
func newApp() (*app.App, appconfig.Options, error) {

	opts, err := appconfig.Load()
	if err != nil {
		return nil, opts, err
	}

	setupLogging(opts)

	st := store.New(afero.NewOsFs(), opts.StoreRoot)
	if err := st.EnsureLayout(); err != nil {
		return nil, opts, fmt.Errorf("could not prepare the gallery store at %s: %w", opts.StoreRoot, err)
	}

	a := app.New(remote.New(), st)
	a.DefaultBranch = opts.DefaultBranch
	a.Syncer.Workers = opts.Workers
	a.Syncer.Rate = rate.Limit(opts.RatePerSecond)
	a.Approve = askYesNo
	a.Choose = chooseFromList
	a.Progress = consoleProgress()

	return a, opts, nil
}

func askYesNo(prompt string) bool {

	fmt.Printf("%s [y/N]: ", prompt)

	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func chooseFromList(names []string) (string, bool) {

	fmt.Println("This repository hosts several galleries:")
	for i, name := range names {
		fmt.Printf("  %d) %s\n", i+1, name)
	}
	fmt.Printf("Pick one [1-%d, empty to abort]: ", len(names))

	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return "", false
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", false
	}

	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(names) {
		fmt.Println("No such entry.")
		return "", false
	}

	return names[n-1], true
}

// consoleProgress prints the running percentage for each report
func consoleProgress() syncer.Reporter {

	total := 0.0

	return syncer.ReporterFunc(func(increment float64, message string) {
		total += increment
		fmt.Printf("[%5.1f%%] %s\n", total, message)
	})
}

// exitOn prints a diagnostic and terminates with status 1 on error
func exitOn(diag string, err error) {

	if diag != "" {
		fmt.Println(diag)
	}

	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
}
