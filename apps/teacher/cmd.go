package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/trezcool/mahudhurio/core/attendance"
)

var (
	presentFunc = presentLoop // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	svc *attendance.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  create -course COURSE [-date YYYY-MM-DD] [-duration MINUTES] - create a session and show its rotating code")
	fmt.Println("  list -course COURSE - list a course's sessions, newest first")
	fmt.Println("  toggle -course COURSE -session SESSION [-active=false] - activate/deactivate a session")
	fmt.Println("  delete -course COURSE -session SESSION - delete a session (irreversible)")
	fmt.Println("  present -session SESSION - show an existing session's rotating code")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createCmd := flag.NewFlagSet("create", flag.ExitOnError)
	createCourse := createCmd.String("course", "", "The course to open the session for.")
	createDate := createCmd.String("date", "", "Session date (YYYY-MM-DD); defaults to today.")
	createDuration := createCmd.Int("duration", 60, "Session duration in minutes.")

	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	listCourse := listCmd.String("course", "", "The course to list sessions for.")

	toggleCmd := flag.NewFlagSet("toggle", flag.ExitOnError)
	toggleCourse := toggleCmd.String("course", "", "The session's course.")
	toggleSession := toggleCmd.String("session", "", "The session to toggle.")
	toggleActive := toggleCmd.Bool("active", true, "The desired active state.")

	deleteCmd := flag.NewFlagSet("delete", flag.ExitOnError)
	deleteCourse := deleteCmd.String("course", "", "The session's course.")
	deleteSession := deleteCmd.String("session", "", "The session to delete.")

	presentCmd := flag.NewFlagSet("present", flag.ExitOnError)
	presentSession := presentCmd.String("session", "", "The session to present.")

	switch args[1] {
	case "create":
		if err := createCmd.Parse(args[2:]); err != nil {
			return err
		}
		date := time.Now()
		if *createDate != "" {
			var err error
			if date, err = time.Parse("2006-01-02", *createDate); err != nil {
				return err
			}
		}
		return cli.create(*createCourse, date, *createDuration)
	case "list":
		if err := listCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.list(*listCourse)
	case "toggle":
		if err := toggleCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *toggleSession == "" {
			toggleCmd.Usage()
			return errHelp
		}
		return cli.toggle(*toggleCourse, *toggleSession, *toggleActive)
	case "delete":
		if err := deleteCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *deleteSession == "" {
			deleteCmd.Usage()
			return errHelp
		}
		return cli.delete(*deleteCourse, *deleteSession)
	case "present":
		if err := presentCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *presentSession == "" {
			presentCmd.Usage()
			return errHelp
		}
		return cli.present(*presentSession)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) create(courseID string, date time.Time, duration int) error {
	sess, sessions, pres, err := cli.svc.Create(context.Background(), attendance.NewSession{
		CourseID:        courseID,
		Date:            date,
		DurationMinutes: duration,
	})
	if err != nil {
		return err
	}
	defer pres.Close()

	fmt.Printf("session %s created for course %s\n", sess.ID, sess.CourseID)
	printSessions(sessions)
	return presentFunc(pres)
}

func (cli *commandLine) present(sessionID string) error {
	pres := cli.svc.Present(sessionID)
	defer pres.Close()
	return presentFunc(pres)
}

func (cli *commandLine) list(courseID string) error {
	sessions, err := cli.svc.List(context.Background(), courseID)
	if err != nil {
		return err
	}
	printSessions(sessions)
	return nil
}

func (cli *commandLine) toggle(courseID, sessionID string, active bool) error {
	sessions, err := cli.svc.SetActive(context.Background(), courseID, sessionID, active)
	if err != nil {
		return err
	}
	printSessions(sessions)
	return nil
}

func (cli *commandLine) delete(courseID, sessionID string) error {
	sessions, err := cli.svc.Delete(context.Background(), courseID, sessionID)
	if err != nil {
		return err
	}
	printSessions(sessions)
	return nil
}

func printSessions(sessions []attendance.Session) {
	if len(sessions) == 0 {
		fmt.Println("no sessions")
		return
	}
	for _, sess := range sessions {
		state := "inactive"
		if sess.IsActive {
			state = "active"
		}
		fmt.Printf("%s  %s  %s  %s\n", sess.ID, sess.CourseID, sess.CreatedAt.Format(time.RFC3339), state)
	}
}
