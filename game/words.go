package game

import (
	"bufio"
	"math/rand/v2"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

var DefaultWords = []string{
	"apple", "banana", "bicycle", "bridge", "butterfly", "cactus", "camera", "candle",
	"castle", "cat", "clock", "cloud", "dog", "dolphin", "dragon", "drum",
	"elephant", "feather", "fish", "flower", "giraffe", "guitar", "hammer", "helicopter",
	"horse", "house", "island", "kite", "ladder", "lighthouse", "moon", "mountain",
	"octopus", "owl", "penguin", "piano", "pizza", "rainbow", "robot", "rocket",
	"scissors", "snail", "snowman", "spider", "sun", "sword", "tree", "umbrella",
	"volcano", "whale",
}

// WordPool draws candidates from an in-memory list. One call never returns
// the same word twice.
type WordPool struct {
	words  []string
	locker sync.Mutex
}

func NewWordPool(words []string) *WordPool {
	seen := make(map[string]struct{}, len(words))
	pool := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		key := strings.ToLower(w)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		pool = append(pool, w)
	}
	return &WordPool{words: pool}
}

func (p *WordPool) Generate(count int) []string {
	p.locker.Lock()
	defer p.locker.Unlock()

	count = min(count, len(p.words))
	if count <= 0 {
		return []string{}
	}
	// partial Fisher-Yates over the first count slots
	for i := range count {
		j := i + rand.IntN(len(p.words)-i)
		p.words[i], p.words[j] = p.words[j], p.words[i]
	}
	out := make([]string, count)
	copy(out, p.words[:count])
	return out
}

func (p *WordPool) Len() int {
	p.locker.Lock()
	defer p.locker.Unlock()
	return len(p.words)
}

// Replace swaps the list for words, cleaned the same way NewWordPool does.
func (p *WordPool) Replace(words []string) {
	fresh := NewWordPool(words)
	p.locker.Lock()
	defer p.locker.Unlock()
	p.words = fresh.words
}

// LoadWordsFile reads one word per line. Blank lines and lines starting with
// '#' are skipped by NewWordPool.
func LoadWordsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		words = append(words, scanner.Text())
	}
	return words, scanner.Err()
}

type fallbackWordsGenerator struct {
	primary  RandomWordsGenerator
	fallback RandomWordsGenerator
}

// NewFallbackWordsGenerator asks primary first and falls back when it comes
// back short, e.g. an unreachable or unseeded database.
func NewFallbackWordsGenerator(primary, fallback RandomWordsGenerator) RandomWordsGenerator {
	return &fallbackWordsGenerator{primary: primary, fallback: fallback}
}

func (g *fallbackWordsGenerator) Generate(count int) []string {
	words := g.primary.Generate(count)
	if len(words) >= count {
		return words
	}
	log.Warn().Int("wanted", count).Int("got", len(words)).Msg("word source came back short, using fallback")
	return g.fallback.Generate(count)
}
