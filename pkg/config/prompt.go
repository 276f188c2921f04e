// pkg/config/prompt.go
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks for credentials the environment did not provide.
// It runs once at startup; the pipeline only ever sees the resulting Config.
type Prompter struct {
	in           *bufio.Reader
	out          io.Writer
	readPassword func() (string, error)
}

// NewPrompter creates a prompter reading from in and writing prompts to out.
// When in is a terminal, passwords are read without echo.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{
		in:  bufio.NewReader(in),
		out: out,
	}

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		p.readPassword = func() (string, error) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(p.out)
			if err != nil {
				return "", err
			}
			return string(b), nil
		}
	}

	return p
}

type credentialField struct {
	label  string
	value  *string
	secret bool
}

// Fill prompts for every missing credential of the selected dialect
func (p *Prompter) Fill(cfg *Config) error {
	switch cfg.Dialect {
	case DialectSnowflake:
		creds := cfg.Snowflake.Credentials()
		fields := []credentialField{
			{label: "Enter your Snowflake user", value: &creds.User},
		}
		if cfg.Snowflake.NeedsPassword() {
			fields = append(fields, credentialField{label: "Enter your Snowflake password", value: &creds.Password, secret: true})
		}
		fields = append(fields,
			credentialField{label: "Enter your Snowflake account (e.g., abc12345.us-east-1)", value: &creds.Account},
			credentialField{label: "Enter your Snowflake database", value: &creds.Database},
			credentialField{label: "Enter your Snowflake schema", value: &creds.Schema},
			credentialField{label: "Enter your Snowflake warehouse", value: &creds.Warehouse},
		)
		if err := p.fillFields(fields); err != nil {
			return err
		}
		cfg.Snowflake.ApplyCredentials(creds)

	case DialectPostgres:
		creds := cfg.Postgres.Credentials()
		fields := []credentialField{
			{label: "Enter your PostgreSQL user", value: &creds.User},
			{label: "Enter your PostgreSQL password", value: &creds.Password, secret: true},
			{label: "Enter your PostgreSQL database", value: &creds.Database},
			{label: "Enter your PostgreSQL schema", value: &creds.Schema},
		}
		if err := p.fillFields(fields); err != nil {
			return err
		}
		cfg.Postgres.ApplyCredentials(creds)
	}

	return nil
}

func (p *Prompter) fillFields(fields []credentialField) error {
	for _, f := range fields {
		if *f.value != "" {
			continue
		}
		v, err := p.ask(f.label, f.secret)
		if err != nil {
			return err
		}
		*f.value = v
	}
	return nil
}

func (p *Prompter) ask(label string, secret bool) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)

	if secret && p.readPassword != nil {
		v, err := p.readPassword()
		if err != nil {
			return "", fmt.Errorf("failed to read %q: %w", label, err)
		}
		return strings.TrimSpace(v), nil
	}

	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read %q: %w", label, err)
	}
	return strings.TrimSpace(line), nil
}
