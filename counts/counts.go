// Package counts reads allele count files and stores population data
// as compressed site patterns for PoMo.
package counts

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/op/go-logging"
)

// log is the global logging variable.
var log = logging.MustGetLogger("counts")

// Counts is the content of a counts file. Sites[i][p] is the number of
// A, C, G and T alleles of population p at site i.
type Counts struct {
	Pops   []string
	Chroms []string
	Pos    []int
	Sites  [][][4]int
}

// NSites returns number of sites.
func (c *Counts) NSites() int {
	return len(c.Sites)
}

// NPop returns number of populations.
func (c *Counts) NPop() int {
	return len(c.Pops)
}

// ReadCounts parses a counts file. The format is
//
//	COUNTSFILE NPOP 2 NSITES 3
//	CHROM POS pop1 pop2
//	chr1 10 0,0,10,0 0,0,8,2
//
// Lines starting with '#' are comments.
func ReadCounts(rd io.Reader) (*Counts, error) {
	scanner := bufio.NewScanner(rd)
	c := &Counts{}
	npop, nsites := -1, -1
	header := false
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		switch {
		case npop < 0:
			if fields[0] != "COUNTSFILE" {
				return nil, errors.New("counts file should start with COUNTSFILE")
			}
			for i := 1; i+1 < len(fields); i += 2 {
				v, err := strconv.Atoi(fields[i+1])
				if err != nil {
					return nil, fmt.Errorf("line %d: %v", lineNo, err)
				}
				switch fields[i] {
				case "NPOP":
					npop = v
				case "NSITES":
					nsites = v
				}
			}
			if npop <= 0 {
				return nil, errors.New("NPOP is missing or not positive")
			}
		case !header:
			if len(fields) != npop+2 || fields[0] != "CHROM" {
				return nil, fmt.Errorf("line %d: expected CHROM POS and %d population names", lineNo, npop)
			}
			c.Pops = fields[2:]
			header = true
		default:
			if len(fields) != npop+2 {
				return nil, fmt.Errorf("line %d: expected %d columns, got %d", lineNo, npop+2, len(fields))
			}
			pos, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %v", lineNo, err)
			}
			site := make([][4]int, npop)
			for p := range site {
				site[p], err = parseAlleleCounts(fields[p+2])
				if err != nil {
					return nil, fmt.Errorf("line %d: %v", lineNo, err)
				}
			}
			c.Chroms = append(c.Chroms, fields[0])
			c.Pos = append(c.Pos, pos)
			c.Sites = append(c.Sites, site)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !header {
		return nil, errors.New("counts file has no header")
	}
	if nsites >= 0 && nsites != len(c.Sites) {
		log.Warningf("NSITES=%d, but %d sites were read", nsites, len(c.Sites))
	}
	return c, nil
}

// parseAlleleCounts parses "a,c,g,t".
func parseAlleleCounts(s string) (res [4]int, err error) {
	fields := strings.Split(s, ",")
	if len(fields) != 4 {
		return res, fmt.Errorf("expected 4 allele counts, got %q", s)
	}
	for i, f := range fields {
		res[i], err = strconv.Atoi(f)
		if err != nil {
			return
		}
		if res[i] < 0 {
			return res, fmt.Errorf("negative allele count %q", s)
		}
	}
	return
}
