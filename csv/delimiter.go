package csv

import (
	"bufio"
	"io"
	"strings"

	"hermannm.dev/wrap"
)

var DefaultDelimiters = []rune{',', ';', '\t', '|'}

const (
	fallbackDelimiter = ','
	maxDelimiterLines = 20
)

// DeduceDelimiter picks the candidate that occurs most consistently across the first lines of
// the file, preferring candidates with the same count on every line. If no candidate occurs at
// all (for example in a single-column file), it falls back to ','. The file is rewound before
// returning.
func DeduceDelimiter(
	csvFile io.ReadSeeker,
	maxLines int,
	candidates []rune,
) (delimiter rune, err error) {
	defer func() {
		if _, seekErr := csvFile.Seek(0, io.SeekStart); seekErr != nil && err == nil {
			err = wrap.Error(seekErr, "failed to rewind CSV file after deducing delimiter")
		}
	}()

	if len(candidates) == 0 {
		candidates = DefaultDelimiters
	}

	counts := make([]delimiterCount, 0, len(candidates))
	for _, candidate := range candidates {
		counts = append(counts, delimiterCount{delimiter: candidate, highest: -1, lowest: -1})
	}

	scanner := bufio.NewScanner(csvFile)
	for lines := 0; lines < maxLines && scanner.Scan(); lines++ {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		for i := range counts {
			counts[i].update(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, wrap.Error(err, "failed to scan CSV file")
	}

	best := bestDelimiter(counts)
	if best.highest <= 0 {
		return fallbackDelimiter, nil
	}
	return best.delimiter, nil
}

type delimiterCount struct {
	delimiter rune
	highest   int
	lowest    int
}

func (count *delimiterCount) update(line string) {
	occurrences := strings.Count(line, string(count.delimiter))

	if count.highest == -1 || count.highest < occurrences {
		count.highest = occurrences
	}
	if count.lowest == -1 || count.lowest > occurrences {
		count.lowest = occurrences
	}
}

func (count delimiterCount) isConsistent() bool {
	return count.highest == count.lowest
}

func bestDelimiter(counts []delimiterCount) delimiterCount {
	var best delimiterCount

	for _, candidate := range counts {
		consistentAndHigher := candidate.isConsistent() && best.isConsistent() &&
			candidate.highest > best.highest

		moreConsistent := candidate.isConsistent() && !best.isConsistent() && candidate.highest > 0

		inconsistentButHigher := !candidate.isConsistent() && !best.isConsistent() &&
			candidate.highest > best.highest &&
			(candidate.lowest != 0 || best.lowest == 0)

		if consistentAndHigher || moreConsistent || inconsistentButHigher {
			best = candidate
		}
	}

	return best
}
