package config

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// NeedsPassword reports whether connecting to the discrete Postgres settings
// still lacks a password.
func (d DatabaseConfig) NeedsPassword() bool {
	return d.URL == "" && d.Password == ""
}

// PromptPassword asks for the database password on in without echo. It does
// nothing when a password or URL is already set, or when in is not a terminal.
func (d *DatabaseConfig) PromptPassword(in *os.File, out io.Writer) error {
	if !d.NeedsPassword() {
		return nil
	}
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	fmt.Fprint(out, "Enter Database Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	d.Password = string(pw)
	return nil
}
