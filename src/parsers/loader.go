package parsers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/username/kakeibo/src/models"
)

// Loader reads the full raw data set for one pipeline run from a data
// directory (transaction tables) and a master directory (reference tables).
type Loader struct {
	dataDir   string
	masterDir string
}

// NewLoader creates a Loader over the given directories.
func NewLoader(dataDir, masterDir string) *Loader {
	return &Loader{dataDir: dataDir, masterDir: masterDir}
}

// LoadAll reads every input table. Any missing file or malformed row fails
// the whole load; the pipeline never runs over a partial data set.
func (l *Loader) LoadAll() (*models.RawDataSet, error) {
	data := &models.RawDataSet{}

	if err := l.parseFile(l.dataDir, "income.csv", func(r io.Reader) error {
		var err error
		data.Incomes, err = ParseIncome(r)
		return err
	}); err != nil {
		return nil, err
	}

	if err := l.parseFile(l.dataDir, "expense.csv", func(r io.Reader) error {
		var err error
		data.Expenses, err = ParseExpense(r)
		return err
	}); err != nil {
		return nil, err
	}

	if err := l.parseFile(l.dataDir, "assets.csv", func(r io.Reader) error {
		var err error
		data.Assets, err = ParseAssets(r)
		return err
	}); err != nil {
		return nil, err
	}

	if err := l.parseFile(l.dataDir, "market.csv", func(r io.Reader) error {
		var err error
		data.Markets, err = ParseMarket(r)
		return err
	}); err != nil {
		return nil, err
	}

	if err := l.parseFile(l.masterDir, "accounts.csv", func(r io.Reader) error {
		var err error
		data.Accounts, err = ParseAccounts(r)
		return err
	}); err != nil {
		return nil, err
	}

	if err := l.parseFile(l.masterDir, "payment_methods.csv", func(r io.Reader) error {
		var err error
		data.Methods, err = ParsePaymentMethods(r)
		return err
	}); err != nil {
		return nil, err
	}

	return data, nil
}

func (l *Loader) parseFile(dir, name string, parse func(io.Reader) error) error {
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := parse(f); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
