package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/anstrom/recnotes/internal/config"
	"github.com/anstrom/recnotes/internal/errors"
	"github.com/anstrom/recnotes/internal/logging"
	"github.com/anstrom/recnotes/internal/notes"
	"github.com/anstrom/recnotes/internal/vault"
)

var (
	initFolder    string
	initName      string
	initType      string
	initVault     bool
	initReusable  bool
	initTemplates bool
	initForce     bool
)

// errAborted is returned when the user declines a prompt.
var errAborted = fmt.Errorf("aborted by user")

// initCmd represents the init command.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize an operation folder or vault",
	Long: `Create an operation folder with Content and Images folders and the stock
tracker and findings notes. Internal operations also get a canvas, a domain
information note and a Patient-Zero host note.

--vault creates a whole vault named after the operation, including the
01-Templates folder and Obsidian settings. Add --reusable to name the vault
AssessmentNotes and put the operation in a sub-folder, so later operations can
be added without --vault.`,
	Example: `  recnotes init -f ~/notes -n Bluebird -t external --vault --reusable
  recnotes init -f ~/notes/AssessmentNotes -n Redwood -t internal
  recnotes init -f ~/vault -n Redwood -t internal --template`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		hostType, err := notes.ParseHostType(initType)
		if err != nil {
			return err
		}

		opts := vault.Options{
			Folder:           initFolder,
			OpName:           initName,
			HostType:         hostType,
			NewVault:         initVault,
			Reusable:         initReusable,
			IncludeTemplates: initTemplates,
			Placeholder:      cfg.Notes.ProjectPlaceholder,
		}
		return runInit(vault.NewInitializer(), opts, initForce, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVarP(&initFolder, "folder", "f", "", "existing folder in which to create the vault or operation folder")
	initCmd.Flags().StringVarP(&initName, "name", "n", "", "operation codename")
	initCmd.Flags().StringVarP(&initType, "type", "t", "", "operation type: internal or external")
	initCmd.Flags().BoolVar(&initVault, "vault", false, "create a whole vault named after the operation")
	initCmd.Flags().BoolVar(&initReusable, "reusable", false, "with --vault, name the vault AssessmentNotes and add the operation as a sub-folder")
	initCmd.Flags().BoolVar(&initTemplates, "template", false, "copy the templates into the operation folder without creating a vault")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing operation folder without asking")

	for _, name := range []string{"folder", "name", "type"} {
		if err := initCmd.MarkFlagRequired(name); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to mark %s required: %v\n", name, err)
		}
	}
}

func runInit(in *vault.Initializer, opts vault.Options, force bool, stdin io.Reader, stdout io.Writer) error {
	if err := config.Struct(opts); err != nil {
		return err
	}

	if ok, _ := afero.DirExists(in.FS, opts.Folder); !ok {
		return errors.NewNoteError(errors.CodeFileNotFound,
			"The folder does not exist. Supply an existing folder in which to create the vault or operation folder",
			opts.Folder)
	}

	if in.OpExists(opts) && !force {
		fmt.Fprint(stdout, "[!] The operation folder already exists and its contents will be overwritten. "+
			"Do you want to continue? (y/N): ")
		if !strings.EqualFold(readAnswer(stdin), "y") {
			fmt.Fprintln(stdout, "Exiting.")
			return errAborted
		}
	}

	res, err := in.Init(opts)
	if err != nil {
		return err
	}

	logging.Info("Operation initialized",
		"op", opts.OpName, "path", res.Layout.OpPath, "files", len(res.Written))

	fmt.Fprintf(stdout, "\n[+] %s is ready at %s\n", opts.OpName, res.Layout.OpPath)
	if opts.NewVault {
		fmt.Fprintln(stdout, "    Open it in Obsidian with Manage Vaults > Open folder as vault.")
		if opts.Reusable {
			fmt.Fprintln(stdout, "    Add later operations without --vault and --reusable.")
		}
	}
	fmt.Fprintln(stdout, "    Populate it with: recnotes parse -f <op folder> -n <name> -t <type> -g scan.gnmap -m hosts.csv")
	return nil
}

// readAnswer returns the first line of r, trimmed.
func readAnswer(r io.Reader) string {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}
