// Notes is a command-line client for notesserver.
//
//	notes get todo
//	echo "buy eggs" | notes put todo
//	notes create shopping < list.txt
//	notes delete todo
//	notes list
//
// The server address defaults to $NOTES_SERVER, or localhost:8080.
package main // import "github.com/nicolagi/notes/cmd/notes"

import (
	"fmt"
	"io"
	"os"

	"github.com/nicolagi/notes/storage"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newCommand(os.Stdin, os.Stdout).Execute(); err != nil {
		log.WithField("err", err).Fatal("Failed")
	}
}

func newCommand(stdin io.Reader, stdout io.Writer) *cobra.Command {
	address := os.Getenv("NOTES_SERVER")
	if address == "" {
		address = "localhost:8080"
	}
	var debug bool
	root := &cobra.Command{
		Use:           "notes",
		Short:         "Read and write notes kept by a notesserver",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVarP(&address, "server", "s", address, "notesserver address, host:port")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "log at debug level")

	store := func() storage.Store {
		log.WithField("server", address).Debug("Connecting")
		return storage.NewRemoteStore(address)
	}
	fail := func(op, name string, err error) error {
		return fmt.Errorf("%s %q: %w", op, name, err)
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "get NAME",
			Short: "Print a note",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				content, err := store().Get(args[0])
				if err != nil {
					return fail("get", args[0], err)
				}
				_, err = stdout.Write(content)
				return err
			},
		},
		&cobra.Command{
			Use:   "put NAME",
			Short: "Replace a note's content with standard input",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				content, err := io.ReadAll(stdin)
				if err != nil {
					return err
				}
				if err := store().Put(args[0], content); err != nil {
					return fail("put", args[0], err)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "create NAME",
			Short: "Create a note with standard input as content",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				content, err := io.ReadAll(stdin)
				if err != nil {
					return err
				}
				if err := store().Create(args[0], content); err != nil {
					return fail("create", args[0], err)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete NAME",
			Short: "Delete a note",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := store().Delete(args[0]); err != nil {
					return fail("delete", args[0], err)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "Print the names of all notes",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				notes, err := store().List()
				if err != nil {
					return fail("list", "", err)
				}
				for _, n := range notes {
					if _, err := fmt.Fprintln(stdout, n.Name); err != nil {
						return err
					}
				}
				return nil
			},
		},
	)
	return root
}
