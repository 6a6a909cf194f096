package service

import (
	"os"
	"sort"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/maruel/natural"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type EditionPage struct {
	Master string `json:"master"`
	Page   int    `json:"page"`
}

type CustomEdition struct {
	Title string
	Pages []EditionPage
}

type RejectedLine struct {
	Line   string
	Reason string
}

// EditionService maintains the generator's page inventory files. A custom
// edition spec is plain text: comment lines start with '#', the first real
// line is the title, every following line is "<page-number> <master-name>".
type EditionService interface {
	MasterNames(mastersJSON string) ([]string, error)
	ParseCustomEdition(text string, masterNames []string) (*CustomEdition, []RejectedLine, error)
	AddCustomEdition(pagesJSON string, edition *CustomEdition) error
	TemplateText(mastersJSON string) (string, error)
}

type editionService struct{}

func (e *editionService) MasterNames(mastersJSON string) ([]string, error) {
	buf, err := os.ReadFile(mastersJSON)
	if err != nil {
		return nil, errors.Wrapf(err, "error when reading %s", mastersJSON)
	}

	var masters map[string]jsoniter.RawMessage
	if err := json.Unmarshal(buf, &masters); err != nil {
		return nil, errors.Wrapf(err, "error when parsing %s", mastersJSON)
	}

	names := make([]string, 0, len(masters))
	for name := range masters {
		names = append(names, name)
	}

	sort.Sort(natural.StringSlice(names))

	return names, nil
}

func (e *editionService) ParseCustomEdition(text string, masterNames []string) (*CustomEdition, []RejectedLine, error) {
	known := mapset.NewSet(masterNames...)

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return nil, nil, errors.New("custom edition spec is empty")
	}

	edition := &CustomEdition{Title: lines[0]}

	var rejected []RejectedLine

	for _, line := range lines[1:] {
		// split off the leading token only; a master name keeps whatever
		// internal spacing it was written with
		trimmed := strings.TrimLeft(line, " \t")
		cut := strings.IndexAny(trimmed, " \t")
		if cut < 0 {
			rejected = append(rejected, RejectedLine{line, "Expected a page number and a master name"})
			continue
		}

		pageNumber, err := strconv.Atoi(trimmed[:cut])
		if err != nil {
			rejected = append(rejected, RejectedLine{line, "First item must be an integer page number"})
			continue
		}

		masterName := strings.TrimLeft(trimmed[cut:], " \t")
		if !known.Contains(masterName) {
			rejected = append(rejected, RejectedLine{line, masterName + " is not in masters.json"})
			continue
		}

		edition.Pages = append(edition.Pages, EditionPage{Master: masterName, Page: pageNumber})
	}

	return edition, rejected, nil
}

// AddCustomEdition appends the edition under the Specials section of
// pages.json, leaving every other section byte-identical.
func (e *editionService) AddCustomEdition(pagesJSON string, edition *CustomEdition) error {
	buf, err := os.ReadFile(pagesJSON)
	if err != nil {
		return errors.Wrapf(err, "error when reading %s", pagesJSON)
	}

	var inventory map[string]jsoniter.RawMessage
	if err := json.Unmarshal(buf, &inventory); err != nil {
		return errors.Wrapf(err, "error when parsing %s", pagesJSON)
	}

	specials := map[string]jsoniter.RawMessage{}
	if raw, ok := inventory["Specials"]; ok {
		if err := json.Unmarshal(raw, &specials); err != nil {
			return errors.Wrapf(err, "error when parsing Specials section of %s", pagesJSON)
		}
	}

	pages, err := json.Marshal(edition.Pages)
	if err != nil {
		return err
	}
	specials[edition.Title] = pages

	raw, err := json.Marshal(specials)
	if err != nil {
		return err
	}
	inventory["Specials"] = raw

	out, err := json.MarshalIndent(inventory, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(pagesJSON, out, 0o644); err != nil {
		return errors.Wrapf(err, "error when writing %s", pagesJSON)
	}

	return nil
}

func (e *editionService) TemplateText(mastersJSON string) (string, error) {
	names, err := e.MasterNames(mastersJSON)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(`# This is a template for a new custom edition.
#
# The first line should be a title, ideally starting with
# the date in YYYY-MM-DD format (ie 2018-07-18) and then
# a description (ie 2018-07-14 Durham Miners’ Gala)
#
# Then type a series of lines describing a page or spread in
# the edition, starting with a page number, one or more
# spaces, then the name of a master page template.
#
# For example, to create the front page, type:
# 1     News-Front
#
# And a features spread:
#
# 8     Feat-Base-S
#
# New masters in the InDesign file need to be added to the
# masters.json file before you can generate them. These are
# the master pages that have entries in the masters.json file:
#
`)
	b.WriteString("# " + strings.Join(names, "\n# ") + "\n")

	return b.String(), nil
}

func NewEditionService() EditionService {
	return &editionService{}
}
