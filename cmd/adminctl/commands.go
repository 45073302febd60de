package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"wastereport/internal/accounts"
)

const usage = `usage:
  adminctl create <name>
  adminctl lock <name>
  adminctl unlock [-reset-password] <name>`

var (
	errPasswordMismatch = errors.New("passwords do not match")
	errNoInput          = errors.New("no password given")
)

type command struct {
	verb          string
	account       string
	resetPassword bool
}

func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return command{}, errors.New("missing command")
	}
	c := command{verb: args[0]}

	fs := flag.NewFlagSet(c.verb, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	switch c.verb {
	case "create", "lock":
	case "unlock":
		fs.BoolVar(&c.resetPassword, "reset-password", false, "set a new password while unlocking")
	default:
		return command{}, fmt.Errorf("unknown command %q", c.verb)
	}
	if err := fs.Parse(args[1:]); err != nil {
		return command{}, err
	}
	if fs.NArg() != 1 || strings.TrimSpace(fs.Arg(0)) == "" {
		return command{}, fmt.Errorf("%s: exactly one account name is required", c.verb)
	}
	c.account = strings.TrimSpace(fs.Arg(0))
	return c, nil
}

// provisioner is the slice of accounts.Provisioner the commands need.
type provisioner interface {
	Create(ctx context.Context, name, secret string) (accounts.Account, error)
	Lock(ctx context.Context, name string) error
	Unlock(ctx context.Context, name string, newSecret *string) error
}

func (c command) exec(ctx context.Context, p provisioner, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)

	switch c.verb {
	case "create":
		secret, err := readNewSecret(sc, out)
		if err != nil {
			return err
		}
		a, err := p.Create(ctx, c.account, secret)
		if err != nil {
			return describe(err, c.account)
		}
		fmt.Fprintf(out, "created %s (%s)\n", a.Name, a.ID)
	case "lock":
		if err := p.Lock(ctx, c.account); err != nil {
			return describe(err, c.account)
		}
		fmt.Fprintf(out, "locked %s\n", c.account)
	case "unlock":
		var secret *string
		if c.resetPassword {
			s, err := readNewSecret(sc, out)
			if err != nil {
				return err
			}
			secret = &s
		}
		if err := p.Unlock(ctx, c.account, secret); err != nil {
			return describe(err, c.account)
		}
		fmt.Fprintf(out, "unlocked %s\n", c.account)
	}
	return nil
}

func readNewSecret(sc *bufio.Scanner, out io.Writer) (string, error) {
	read := func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", errNoInput
		}
		return strings.TrimRight(sc.Text(), "\r"), nil
	}

	first, err := read("New password: ")
	if err != nil {
		return "", err
	}
	second, err := read("Repeat password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errPasswordMismatch
	}
	if err := accounts.CheckSecret(first); err != nil {
		return "", err
	}
	return first, nil
}

func describe(err error, name string) error {
	switch {
	case errors.Is(err, accounts.ErrNotFound):
		return fmt.Errorf("no admin account named %q", name)
	case errors.Is(err, accounts.ErrAlreadyExists):
		return fmt.Errorf("admin account %q already exists", name)
	default:
		return err
	}
}
