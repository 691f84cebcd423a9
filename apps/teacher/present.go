package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/trezcool/mahudhurio/core/attendance"
)

// presentLoop re-renders the session's rotating code until interrupted.
func presentLoop(pres *attendance.Presenter) error {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	fmt.Println("presenting; press Ctrl+C to stop")
	for {
		select {
		case _, ok := <-pres.Updates():
			if !ok {
				return nil
			}
			code, err := pres.ASCII()
			if err != nil {
				return err
			}
			fmt.Printf("\n%s\nsession: %s\n", code, pres.DisplaySessionID())
		case <-interrupt:
			fmt.Println("\nstopping presentation")
			return nil
		}
	}
}
