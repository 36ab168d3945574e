package gamescript

import (
	"fmt"
	"io/ioutil"
	"sort"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Script contains game script YAML content.
type Script struct {
	Title     string           `yaml:"title"`
	Disabled  bool             `yaml:"disabled"`
	Players   []Player         `yaml:"players"`
	MaxCards  int              `yaml:"max-cards"`
	Steps     []Step           `yaml:"steps"`
	VerifyEnd *EndVerification `yaml:"verify-end"`
}

type Player struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

// Step submits bids and/or tricks for the current round.
/*
  - bids: {Cara: 1, Bram: 0, Anna: 1}
    tricks: "Cara 1, Bram 1, Anna 0"
    verify:
      scores: {Cara: 12, Bram: -2, Anna: -2}
*/
type Step struct {
	Bids        Counts             `yaml:"bids"`
	Tricks      Counts             `yaml:"tricks"`
	ExpectError string             `yaml:"expect-error"`
	Verify      *RoundVerification `yaml:"verify"`
}

type RoundVerification struct {
	Scores Counts `yaml:"scores"`
	Totals Counts `yaml:"totals"`
}

type EndVerification struct {
	Winners []string `yaml:"winners"`
	Tie     *bool    `yaml:"tie"`
	Totals  Counts   `yaml:"totals"`
}

// Counts maps player names to a number. In YAML it is either a mapping or
// a compact string of comma-separated "name number" pairs.
type Counts map[string]int

func (c *Counts) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var m map[string]int
	if err := unmarshal(&m); err == nil {
		*c = m
		return nil
	}

	var expr string
	if err := unmarshal(&expr); err != nil {
		return fmt.Errorf("Cannot parse counts [%v] as a mapping or string", err)
	}
	counts := Counts{}
	for _, pair := range strings.Split(expr, ",") {
		tokens := strings.Fields(pair)
		if len(tokens) != 2 {
			return fmt.Errorf("Invalid count expression [%s]. Need a name and a number", strings.TrimSpace(pair))
		}
		n, err := strconv.Atoi(tokens[1])
		if err != nil {
			return errors.Wrapf(err, "Cannot convert [%s] to a count for %s", tokens[1], tokens[0])
		}
		counts[tokens[0]] = n
	}
	*c = counts
	return nil
}

// Names returns the names in c in sorted order.
func (c Counts) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ReadGameScript(fileName string) (*Script, error) {
	bytes, err := ioutil.ReadFile(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "Error reading game script file [%s]", fileName)
	}

	var script Script
	err = yaml.Unmarshal(bytes, &script)
	if err != nil {
		return nil, errors.Wrapf(err, "Error parsing YAML file [%s]", fileName)
	}

	err = script.Validate()
	if err != nil {
		return nil, errors.Wrapf(err, "Error validating script [%s]", fileName)
	}

	return &script, nil
}

func (s *Script) Validate() error {
	playerIDs := mapset.NewSet()
	playerNames := mapset.NewSet()

	if s.MaxCards < 1 {
		return fmt.Errorf("Invalid max-cards [%d]", s.MaxCards)
	}

	// Check player ids and names are unique.
	for _, p := range s.Players {
		if playerIDs.Contains(p.ID) {
			return fmt.Errorf("Duplicate player id [%d] in players", p.ID)
		}
		playerIDs.Add(p.ID)
		if playerNames.Contains(p.Name) {
			return fmt.Errorf("Duplicate player name [%s] in players", p.Name)
		}
		playerNames.Add(p.Name)
	}

	checkNames := func(where string, names []string) error {
		for _, name := range names {
			if !playerNames.Contains(name) {
				return fmt.Errorf("Unknown player [%s] in %s", name, where)
			}
		}
		return nil
	}

	for i, step := range s.Steps {
		stepNum := i + 1
		if step.Bids == nil && step.Tricks == nil {
			return fmt.Errorf("Step %d has neither bids nor tricks", stepNum)
		}
		if err := checkNames(fmt.Sprintf("step %d bids", stepNum), step.Bids.Names()); err != nil {
			return err
		}
		if err := checkNames(fmt.Sprintf("step %d tricks", stepNum), step.Tricks.Names()); err != nil {
			return err
		}
		if step.Verify != nil {
			if err := checkNames(fmt.Sprintf("step %d verify scores", stepNum), step.Verify.Scores.Names()); err != nil {
				return err
			}
			if err := checkNames(fmt.Sprintf("step %d verify totals", stepNum), step.Verify.Totals.Names()); err != nil {
				return err
			}
		}
	}

	if s.VerifyEnd != nil {
		if err := checkNames("verify-end winners", s.VerifyEnd.Winners); err != nil {
			return err
		}
		if err := checkNames("verify-end totals", s.VerifyEnd.Totals.Names()); err != nil {
			return err
		}
	}
	return nil
}

// PlayerID returns the id of the named player.
func (s *Script) PlayerID(name string) (int, bool) {
	for _, p := range s.Players {
		if p.Name == name {
			return p.ID, true
		}
	}
	return 0, false
}
