// Package setup implements the interactive onboarding flows: guiding the
// operator through logging into the wrapped tool and filing the resulting
// credential file into a rotation slot.
package setup

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"

	"qwenrotate-go/internal/rotation"
)

// Onboarder runs the interactive account setup flows. Prompts and answers
// go through the injected reader/writer so tests can script a session.
type Onboarder struct {
	manager *rotation.Manager
	binary  string
	in      *bufio.Reader
	out     io.Writer
}

// NewOnboarder builds an onboarder for the given manager and wrapped-tool
// binary name, talking to stdin/stdout.
func NewOnboarder(mgr *rotation.Manager, binary string) *Onboarder {
	return &Onboarder{
		manager: mgr,
		binary:  binary,
		in:      bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}
}

// NewOnboarderIO is like NewOnboarder with explicit streams.
func NewOnboarderIO(mgr *rotation.Manager, binary string, in io.Reader, out io.Writer) *Onboarder {
	return &Onboarder{
		manager: mgr,
		binary:  binary,
		in:      bufio.NewReader(in),
		out:     out,
	}
}

// SetupAccounts walks the operator through logging in count times, filing
// each login's credential file into slot 1..count, then writes the initial
// rotation state.
func (o *Onboarder) SetupAccounts(count int) error {
	if count <= 0 {
		return fmt.Errorf("account count must be positive, got %d", count)
	}
	if err := o.checkToolInstalled(); err != nil {
		return err
	}

	fmt.Fprintf(o.out, "=== Account rotation setup (%d accounts) ===\n", count)
	if err := o.manager.Slots().EnsureDir(); err != nil {
		return fmt.Errorf("create accounts directory: %w", err)
	}

	for i := 1; i <= count; i++ {
		if err := o.setupSingle(i, fmt.Sprintf("/%d", count)); err != nil {
			return err
		}
	}

	fmt.Fprintln(o.out, "=== Setup complete ===")
	if err := o.manager.CreateInitialState(); err != nil {
		return fmt.Errorf("write initial state: %w", err)
	}
	return nil
}

// AddAccount onboards one more account at the lowest free slot index and
// returns that index.
func (o *Onboarder) AddAccount() (int, error) {
	if err := o.checkToolInstalled(); err != nil {
		return 0, err
	}
	if err := o.manager.Slots().EnsureDir(); err != nil {
		return 0, fmt.Errorf("create accounts directory: %w", err)
	}

	existing := make(map[int]bool)
	for _, idx := range o.manager.Slots().Discover() {
		existing[idx] = true
	}
	index := 1
	for existing[index] {
		index++
	}

	fmt.Fprintf(o.out, "Adding new account as index %d\n", index)
	if err := o.setupSingle(index, ""); err != nil {
		return 0, err
	}
	return index, nil
}

// RemoveAccount deletes the slot for index after an interactive
// confirmation. Declining is not an error.
func (o *Onboarder) RemoveAccount(index int) error {
	slots := o.manager.Slots()
	if !slots.Exists(index) {
		return &rotation.AccountNotFoundError{Index: index, Path: slots.SlotPath(index)}
	}

	fmt.Fprintf(o.out, "Remove account %d? (y/N): ", index)
	if !o.confirm() {
		fmt.Fprintln(o.out, "Cancelled.")
		return nil
	}
	if err := os.Remove(slots.SlotPath(index)); err != nil {
		return fmt.Errorf("remove account %d: %w", index, err)
	}
	fmt.Fprintf(o.out, "Removed account %d\n", index)
	log.Infof("removed account slot %d", index)
	return nil
}

// setupSingle guides one login and files the resulting credential file into
// the slot for index. An existing slot prompts before overwriting; keeping
// it counts as success.
func (o *Onboarder) setupSingle(index int, progress string) error {
	slots := o.manager.Slots()

	for {
		fmt.Fprintf(o.out, "\n--- Account %d%s ---\n", index, progress)
		fmt.Fprintf(o.out, "1. Open a NEW terminal\n")
		fmt.Fprintf(o.out, "2. Run: %s\n", o.binary)
		fmt.Fprintf(o.out, "3. Complete the OAuth login in your browser\n")
		fmt.Fprintf(o.out, "4. Close that terminal and return here\n")
		fmt.Fprint(o.out, "Press ENTER when the login is complete...")
		o.readLine()

		if _, err := os.Stat(o.manager.ActiveFile()); err != nil {
			fmt.Fprintf(o.out, "No credentials found at %s\n", o.manager.ActiveFile())
			fmt.Fprint(o.out, "Try again? (y/N): ")
			if o.confirm() {
				continue
			}
			return fmt.Errorf("no credentials produced for account %d", index)
		}
		break
	}

	target := slots.SlotPath(index)
	if slots.Exists(index) {
		fmt.Fprintf(o.out, "Account %d credentials already exist. Overwrite? (y/N): ", index)
		if !o.confirm() {
			fmt.Fprintf(o.out, "Keeping existing account %d\n", index)
			return nil
		}
	}

	if err := moveFile(o.manager.ActiveFile(), target); err != nil {
		return fmt.Errorf("file credentials for account %d: %w", index, err)
	}
	fmt.Fprintf(o.out, "Saved credentials as %s\n", target)
	return nil
}

func (o *Onboarder) checkToolInstalled() error {
	if _, err := exec.LookPath(o.binary); err != nil {
		return fmt.Errorf("%s CLI is not installed or not in PATH", o.binary)
	}
	return nil
}

func (o *Onboarder) readLine() string {
	line, _ := o.in.ReadString('\n')
	return strings.TrimSpace(line)
}

func (o *Onboarder) confirm() bool {
	return strings.EqualFold(o.readLine(), "y")
}

// moveFile renames src to dst, falling back to copy+remove for
// cross-device moves.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return err
	}
	return os.Remove(src)
}
