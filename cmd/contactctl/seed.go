package main

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/eeeflix-contacts/internal/models"
	"github.com/noah-isme/eeeflix-contacts/internal/repository"
	"github.com/noah-isme/eeeflix-contacts/pkg/config"
)

const (
	firstStudentID = 2301001
	lastStudentID  = 2301060
)

var operators = []string{"013", "014", "015", "016", "017", "018", "019"}

type seedOptions struct {
	output string
	seed   uint64
	force  bool
}

func newSeedCmd() *cobra.Command {
	opts := &seedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write the pre-seeded contact store",
		Long: `Write a store with one record per student from 2301001 to 2301060.
Phones look like "+880 01X-XXXX-XXXX" and links like "https://facebook.com/eeeruet<last4>".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.output
			if path == "" {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("seed: load config: %w", err)
				}
				path = cfg.Store.ContactsPath()
			}
			if err := writeSeed(cmd, path, opts); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "store file to write (default ASSETS_DIR/CONTACTS_FILE)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed; 0 picks one from the clock")
	cmd.Flags().BoolVar(&opts.force, "force", false, "overwrite an existing store")
	return cmd
}

func writeSeed(cmd *cobra.Command, path string, opts *seedOptions) error {
	if !opts.force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	seed := opts.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	contacts := seedContacts(seed)
	if err := repository.NewContactFileRepository(path).Replace(cmd.Context(), contacts); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d contacts to %s\n", len(contacts), path)
	return nil
}

// seedContacts generates the pre-seeded records. The same seed always
// yields the same store.
func seedContacts(seed uint64) []models.Contact {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]models.Contact, 0, lastStudentID-firstStudentID+1)
	for no := firstStudentID; no <= lastStudentID; no++ {
		id := strconv.Itoa(no)
		digits := id[len(id)-5:] + fmt.Sprintf("%03d", r.IntN(1000))
		out = append(out, models.Contact{
			No:        no,
			ContactNo: fmt.Sprintf("+880 %s-%s-%s", operators[r.IntN(len(operators))], digits[:4], digits[4:]),
			FBLink:    "https://facebook.com/eeeruet" + id[len(id)-4:],
		})
	}
	return out
}
