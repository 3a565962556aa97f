package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
)

func (c *cli) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run commands interactively in one session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.inShell {
				return errors.New("already in the shell")
			}
			c.inShell = true
			defer func() { c.inShell = false }()
			return c.runShell(cmd)
		},
	}
}

func (c *cli) runShell(cmd *cobra.Command) error {
	a := c.app
	fmt.Fprintf(a.out, "Welcome to the %s library desk!\n", a.cfg.AppName)
	fmt.Fprintln(a.out, "Available commands:")
	fmt.Fprintln(a.out, "  Account: login, logout, register, whoami, password change|forgot|reset")
	fmt.Fprintln(a.out, "  Library: dashboard, books, requests, issues, overdue, profile")
	fmt.Fprintln(a.out, "  System: help, exit")
	if u := a.auth.User(); u != nil {
		fmt.Fprintf(a.out, "\nSigned in as %s (%s)\n", u.Email, u.Role.Label())
	}

	for {
		line, err := a.prompt.Line("\n> ")
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(a.out)
			return nil
		}
		if err != nil {
			return err
		}
		args, err := splitArgs(line)
		if err != nil {
			fmt.Fprintf(a.out, "Error: %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}

		switch args[0] {
		case "exit", "quit":
			fmt.Fprintln(a.out, "Goodbye!")
			return nil
		case "shell":
			fmt.Fprintln(a.out, "Already in the shell.")
			continue
		}
		// Errors are printed by execute; the loop goes on.
		_ = c.execute(cmd.Context(), args)
		if cmd.Context().Err() != nil {
			return nil
		}
	}
}

// splitArgs breaks a shell line into words. Single or double quotes group
// words and a backslash escapes the next character.
func splitArgs(line string) ([]string, error) {
	args, err := shellwords.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", line, err)
	}
	if len(args) == 0 {
		return nil, nil
	}
	return args, nil
}
