// wiretool encodes and decodes syncwire messages, property keys and property
// values from the command line.
//
// Usage:
//
//	wiretool [--config file] encode [--kind kind] <tag> <text>
//	wiretool [--config file] decode <hex>
//	wiretool [--config file] key encode <owner> <name>
//	wiretool [--config file] key decode <key>
//	wiretool [--config file] value encode <tag> <text>
//	wiretool [--config file] value decode <encoded>
//
// Tags are given by name (int, transform, ...) or number. Values use the
// same text form as the property channel embedding.
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/oy3o/syncwire"
	"github.com/oy3o/syncwire/config"
)

var errUsage = errors.New("usage: wiretool [--config file] encode|decode|key|value ...")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type tool struct {
	catalog *syncwire.Catalog
	keys    *syncwire.KeyCodec
	out     io.Writer
}

func run(args []string, stdout, stderr io.Writer) error {
	var configPath string
	var verbose bool

	flagSet := pflag.NewFlagSet("wiretool", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&configPath, "config", "", "YAML configuration file (default: $"+config.EnvVar+")")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log decode problems to stderr")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	level := slog.LevelError + 1
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	cat, kc := cfg.NewCatalog(logger)
	t := &tool{catalog: cat, keys: kc, out: stdout}

	rest := flagSet.Args()
	if len(rest) == 0 {
		return errUsage
	}
	switch rest[0] {
	case "encode":
		return t.encode(rest[1:], stderr)
	case "decode":
		return t.decode(rest[1:])
	case "key":
		return t.key(rest[1:])
	case "value":
		return t.value(rest[1:])
	}
	return fmt.Errorf("unknown command %q: %w", rest[0], errUsage)
}

func (t *tool) encode(args []string, stderr io.Writer) error {
	var kindName string
	fs := pflag.NewFlagSet("encode", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&kindName, "kind", "k", syncwire.KindCommand.String(), "message kind")
	if err := fs.Parse(args); err != nil {
		return err
	}
	kind, ok := syncwire.ParseMessageKind(kindName)
	if !ok {
		return fmt.Errorf("%w: %q", syncwire.ErrUnknownKind, kindName)
	}
	if fs.NArg() != 2 {
		return errors.New("usage: wiretool encode [--kind kind] <tag> <text>")
	}
	v, err := t.parseValue(fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}
	data, err := t.catalog.Encode(syncwire.Message{Kind: kind, Value: v})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(t.out, hex.EncodeToString(data))
	return err
}

func (t *tool) decode(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: wiretool decode <hex>")
	}
	data, err := hex.DecodeString(strings.TrimSpace(args[0]))
	if err != nil {
		return err
	}
	m, err := t.catalog.Decode(data)
	if err != nil {
		return err
	}
	text, err := t.catalog.Text(m.Value)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(t.out, "%s %s %s\n", m.Kind, m.Value.Tag(), text)
	return err
}

func (t *tool) key(args []string) error {
	switch {
	case len(args) == 3 && args[0] == "encode":
		s, err := t.keys.Encode(args[1], args[2])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(t.out, s)
		return err
	case len(args) == 2 && args[0] == "decode":
		k, ok := t.keys.Decode(args[1])
		if !ok {
			return fmt.Errorf("%w: %q", syncwire.ErrMalformedKey, args[1])
		}
		_, err := fmt.Fprintf(t.out, "owner=%q name=%q\n", k.Owner, k.Name)
		return err
	}
	return errors.New("usage: wiretool key encode <owner> <name> | key decode <key>")
}

func (t *tool) value(args []string) error {
	switch {
	case len(args) == 3 && args[0] == "encode":
		v, err := t.parseValue(args[1], args[2])
		if err != nil {
			return err
		}
		s, err := t.keys.EncodeValue(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(t.out, s)
		return err
	case len(args) == 2 && args[0] == "decode":
		v, err := t.keys.DecodeValue(args[1])
		if err != nil {
			return err
		}
		if v == nil {
			_, err = fmt.Fprintln(t.out, "nil")
			return err
		}
		text, err := t.catalog.Text(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(t.out, "%s %s\n", v.Tag(), text)
		return err
	}
	return errors.New("usage: wiretool value encode <tag> <text> | value decode <encoded>")
}

func (t *tool) parseValue(tagName, text string) (syncwire.Value, error) {
	tag, ok := syncwire.ParseDataTag(tagName)
	if !ok {
		n, err := strconv.ParseUint(tagName, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", syncwire.ErrUnknownTag, tagName)
		}
		tag = syncwire.DataTag(n)
	}
	tc, ok := t.catalog.Lookup(tag)
	if !ok {
		return nil, fmt.Errorf("%w: %s", syncwire.ErrUnknownTag, tag)
	}
	v, ok := tc.ParseText(text)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a valid %s", syncwire.ErrMalformedEncodedValue, text, tag)
	}
	return v, nil
}
