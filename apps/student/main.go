package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	logsvc "github.com/trezcool/mahudhurio/services/logger"
	notifysvc "github.com/trezcool/mahudhurio/services/notify"
	portalsvc "github.com/trezcool/mahudhurio/services/portal"
)

var readPasswordFunc = term.ReadPassword // mockable

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "STUDENT : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	accessToken, err := promptAccessToken()
	if err != nil {
		logger.Fatal(fmt.Sprintf("reading access token: %v", err), err)
	}
	identity, err := portalsvc.Identity(accessToken)
	if err != nil {
		logger.Fatal(fmt.Sprintf("invalid access token: %v", err), err)
	}

	// set up services
	portal := portalsvc.NewService(conf, accessToken, logger)
	notifier := notifysvc.NewConsoleNotifier()
	scanner := attendance.NewScanner(openStdinCapture, logger)
	redeemer := attendance.NewRedeemer(portal, notifier, logger, identity)

	// start CLI
	cli := &commandLine{scanner: scanner, redeemer: redeemer}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func promptAccessToken() (string, error) {
	if tok := os.Getenv("PORTAL_ACCESS_TOKEN"); tok != "" {
		return tok, nil
	}
	fmt.Print("Enter access token:")
	tok, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(tok) == 0 {
		return "", errors.New("access token is required")
	}
	return string(tok), nil
}
