package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/trezcool/mahudhurio/core/attendance"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	scanner  *attendance.Scanner
	redeemer *attendance.Redeemer
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  scan - scan a session's rotating code and check in")
	fmt.Println("  manual -session SESSION - check in with a session ID typed by hand")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	manualCmd := flag.NewFlagSet("manual", flag.ExitOnError)
	manualSession := manualCmd.String("session", "", "The session to check in to.")

	switch args[1] {
	case "scan":
		return cli.scan()
	case "manual":
		if err := manualCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *manualSession == "" {
			manualCmd.Usage()
			return errHelp
		}
		return cli.manual(*manualSession)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) scan() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)
	go func() {
		<-interrupt
		cli.scanner.Cancel()
	}()

	fmt.Println("scanning; point the camera at the session code (Ctrl+C to stop)")
	ev, err := cli.scanner.Scan(ctx)
	if err != nil {
		return err
	}

	res, err := cli.redeemer.RedeemScan(ctx, ev)
	if err != nil {
		return err
	}
	printResult(res)
	return nil
}

func (cli *commandLine) manual(sessionID string) error {
	cli.redeemer.EnterSessionID(sessionID)
	res, err := cli.redeemer.SubmitManual(context.Background())
	if err != nil {
		return err
	}
	printResult(res)
	return nil
}

func printResult(res attendance.RedemptionResult) {
	if res.Succeeded() {
		fmt.Println("checked in")
		return
	}
	fmt.Printf("check-in rejected: %s\n", res.Reason)
}
