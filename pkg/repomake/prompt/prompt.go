// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

// Package prompt asks the user questions on the terminal and prints status
// lines.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/telekom/repomake/pkg/repomake/store"
)

// ErrNonInteractive is returned by every question when prompting is disabled.
var ErrNonInteractive = errors.New("input required but running non-interactively")

const differentLoginChoice = "Authenticate with different GitHub login."

var (
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

type Prompter struct {
	in             *bufio.Reader
	out            io.Writer
	nonInteractive bool
}

type Option func(*Prompter)

// NonInteractive makes every question fail with ErrNonInteractive.
func NonInteractive(enabled bool) Option {
	return func(p *Prompter) {
		p.nonInteractive = enabled
	}
}

func New(in io.Reader, out io.Writer, opts ...Option) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Prompter) Interactive() bool {
	return !p.nonInteractive
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("no input: %w", io.ErrUnexpectedEOF)
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Ask prompts for a free-form answer. An empty answer yields def.
func (p *Prompter) Ask(question, def string) (string, error) {
	if p.nonInteractive {
		return "", ErrNonInteractive
	}
	if def != "" {
		_, _ = fmt.Fprintf(p.out, "%s %s ", bold(question), dim("("+def+")"))
	} else {
		_, _ = fmt.Fprintf(p.out, "%s ", bold(question))
	}
	answer, err := p.readLine()
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Confirm asks a yes/no question. Unrecognised answers are asked again.
func (p *Prompter) Confirm(question string, defaultYes bool) (bool, error) {
	if p.nonInteractive {
		return false, ErrNonInteractive
	}
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	for {
		_, _ = fmt.Fprintf(p.out, "%s %s ", bold(question), hint)
		answer, err := p.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return defaultYes, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		_, _ = fmt.Fprintln(p.out, "Please answer yes or no.")
	}
}

// SelectIdentity lists saved identities in the given order followed by the
// option to log in with a different account. reuse is false when that last
// option is picked. An empty answer selects the first entry.
func (p *Prompter) SelectIdentity(ids store.Identities) (store.Identity, bool, error) {
	if p.nonInteractive {
		return store.Identity{}, false, ErrNonInteractive
	}
	total := len(ids) + 1
	_, _ = fmt.Fprintln(p.out, bold("Found some login tokens in storage, which would you like to use?"))
	for i, id := range ids {
		_, _ = fmt.Fprintf(p.out, "  %d) %s %s\n", i+1, id.Login, dim(store.MaskToken(id.Token)))
	}
	_, _ = fmt.Fprintf(p.out, "  %d) %s\n", total, differentLoginChoice)

	for {
		_, _ = fmt.Fprintf(p.out, "Choice [1-%d]: ", total)
		answer, err := p.readLine()
		if err != nil {
			return store.Identity{}, false, err
		}
		choice := 1
		if answer != "" {
			choice, err = strconv.Atoi(answer)
			if err != nil || choice < 1 || choice > total {
				_, _ = fmt.Fprintf(p.out, "Please enter a number between 1 and %d.\n", total)
				continue
			}
		}
		if choice == total {
			return store.Identity{}, false, nil
		}
		return ids[choice-1], true, nil
	}
}

func (p *Prompter) Info(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(p.out, "%s %s\n", cyan("→"), fmt.Sprintf(format, args...))
}

func (p *Prompter) Success(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(p.out, "%s %s\n", green("✔"), fmt.Sprintf(format, args...))
}

func (p *Prompter) Warn(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(p.out, "%s %s\n", yellow("○"), fmt.Sprintf(format, args...))
}

func (p *Prompter) Fail(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(p.out, "%s %s\n", red("✘"), fmt.Sprintf(format, args...))
}

// Println writes a plain line without decoration.
func (p *Prompter) Println(a ...interface{}) {
	_, _ = fmt.Fprintln(p.out, a...)
}
