// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package keyword builds configured keyword extractors. The extractor is a
// statistical, corpus-free scorer in the YAKE family: every term gets a
// weight from its casing, position, frequency, context diversity and
// sentence spread, and candidate phrases of up to NGram words are ranked by
// combining those weights. Lower scores are more relevant.
package keyword

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	snowballeng "github.com/kljensen/snowball/english"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/pubmed-miner/pkg/types"
)

// minTermRunes is the shortest word that is not treated as a stopword.
const minTermRunes = 3

// stopwordSets maps supported languages to their stopword predicate. The
// predicate receives a lowercased word.
var stopwordSets = map[string]func(string) bool{
	"en": snowballeng.IsStopWord,
}

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+(?:\s+|$)|\n+`)
	tokenPattern  = regexp.MustCompile(`[\p{L}\p{N}](?:[\p{L}\p{M}\p{N}'\-]*[\p{L}\p{M}\p{N}])?|[^\s\p{L}\p{M}\p{N}]`)
)

// Keyword is one extracted phrase and its score.
type Keyword struct {
	Text  string  `json:"text" yaml:"text"`
	Score float64 `json:"score" yaml:"score"`
}

// Extractor holds a validated configuration. It is safe for concurrent use.
type Extractor struct {
	cfg      types.KeywordConfig
	stop     func(string) bool
	sim      func(a, b string) float64
	features map[string]bool
}

// New returns an extractor configured by opts merged over DefaultConfig.
func New(opts ...Option) (*Extractor, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return build(cfg)
}

// NewFromConfig returns an extractor for cfg. Zero fields take defaults.
func NewFromConfig(cfg types.KeywordConfig) (*Extractor, error) {
	return build(withDefaults(cfg))
}

func build(cfg types.KeywordConfig) (*Extractor, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	enabled := make(map[string]bool, len(allFeatures))
	features := cfg.Features
	if len(features) == 0 {
		features = allFeatures
	}
	for _, f := range features {
		enabled[f] = true
	}
	cfg.Features = append([]string(nil), cfg.Features...)
	return &Extractor{
		cfg:      cfg,
		stop:     stopwordSets[cfg.Language],
		sim:      similarityFuncs[cfg.DedupFunc],
		features: enabled,
	}, nil
}

// Config returns a copy of the effective configuration.
func (e *Extractor) Config() types.KeywordConfig {
	cfg := e.cfg
	cfg.Features = append([]string(nil), e.cfg.Features...)
	return cfg
}

// String describes the configuration for log output.
func (e *Extractor) String() string {
	return fmt.Sprintf("keyword extractor (lan=%s n=%d dedup=%s@%.2f window=%d top=%d)",
		e.cfg.Language, e.cfg.NGram, e.cfg.DedupFunc, e.cfg.DedupLimit, e.cfg.WindowSize, e.cfg.Top)
}

// token is one word occurrence.
type token struct {
	text     string
	key      string
	sentence int
	first    bool // first word of its sentence
}

type termStats struct {
	tf        float64
	tfUpper   float64
	tfTitle   float64
	sentences map[int]bool
	stop      bool
	digits    bool
	h         float64
}

type candidate struct {
	key     string
	surface string
	terms   []string
	tf      float64
	score   float64
}

// Extract returns up to Top keywords from text, most relevant first.
func (e *Extractor) Extract(text string) []Keyword {
	chunks, sentences := e.tokenize(text)
	if len(chunks) == 0 {
		return []Keyword{}
	}

	terms, cooc := e.collect(chunks)
	e.weigh(terms, cooc, sentences)

	cands := e.candidates(chunks, terms, cooc)
	return e.selectTop(cands)
}

// tokenize splits text into sentences and each sentence into chunks of
// words separated by punctuation. Text is NFC-normalized first so
// decomposed accents stay inside their word.
func (e *Extractor) tokenize(text string) ([][]token, int) {
	var chunks [][]token
	sentences := 0
	for _, sent := range sentenceSplit.Split(norm.NFC.String(text), -1) {
		words := tokenPattern.FindAllString(sent, -1)
		if len(words) == 0 {
			continue
		}
		var chunk []token
		first := true
		for _, w := range words {
			r, _ := utf8.DecodeRuneInString(w)
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				if len(chunk) > 0 {
					chunks = append(chunks, chunk)
					chunk = nil
				}
				continue
			}
			chunk = append(chunk, token{
				text:     w,
				key:      strings.ToLower(w),
				sentence: sentences,
				first:    first,
			})
			first = false
		}
		if len(chunk) > 0 {
			chunks = append(chunks, chunk)
		}
		if !first {
			sentences++
		}
	}
	return chunks, sentences
}

// cooccurrence counts how often a term appears within the window to the
// left of another: cooc[left][right].
type cooccurrence map[string]map[string]float64

func (c cooccurrence) add(left, right string) {
	m, ok := c[left]
	if !ok {
		m = make(map[string]float64)
		c[left] = m
	}
	m[right]++
}

func (e *Extractor) collect(chunks [][]token) (map[string]*termStats, cooccurrence) {
	terms := make(map[string]*termStats)
	cooc := make(cooccurrence)
	for _, chunk := range chunks {
		for i, tok := range chunk {
			ts, ok := terms[tok.key]
			if !ok {
				ts = &termStats{
					sentences: make(map[int]bool),
					stop:      e.isStop(tok.key),
					digits:    isNumeric(tok.text),
				}
				terms[tok.key] = ts
			}
			ts.tf++
			ts.sentences[tok.sentence] = true
			switch {
			case isAcronym(tok.text):
				ts.tfUpper++
			case !tok.first && isTitle(tok.text):
				ts.tfTitle++
			}
			for j := max(0, i-e.cfg.WindowSize); j < i; j++ {
				cooc.add(chunk[j].key, tok.key)
			}
		}
	}
	return terms, cooc
}

func (e *Extractor) isStop(key string) bool {
	return utf8.RuneCountInString(key) < minTermRunes || e.stop(key)
}

// weigh computes the single-term weight H for every term.
func (e *Extractor) weigh(terms map[string]*termStats, cooc cooccurrence, sentences int) {
	var valid []float64
	maxTF := 0.0
	for _, ts := range terms {
		if ts.stop || ts.digits {
			continue
		}
		valid = append(valid, ts.tf)
		maxTF = math.Max(maxTF, ts.tf)
	}
	// sorted so the sums do not depend on map order
	sort.Float64s(valid)
	mean, std := meanStd(valid)

	// in-edges per term for the left context
	inDistinct := make(map[string]float64)
	inWeight := make(map[string]float64)
	for _, rights := range cooc {
		for right, w := range rights {
			inDistinct[right]++
			inWeight[right] += w
		}
	}

	for key, ts := range terms {
		wCase, wPos, wFreq, wRel, wSpread := 0.0, 1.0, 0.0, 1.0, 0.0
		if e.features[FeatureCase] {
			wCase = math.Max(ts.tfUpper, ts.tfTitle) / (1 + math.Log(ts.tf))
		}
		if e.features[FeaturePos] {
			wPos = math.Log(math.Log(3 + median(ts.sentences)))
		}
		if e.features[FeatureFreq] && mean+std > 0 {
			wFreq = ts.tf / (mean + std)
		}
		if e.features[FeatureRel] && maxTF > 0 {
			wl := ratio(inDistinct[key], inWeight[key])
			var outWeight float64
			for _, w := range cooc[key] {
				outWeight += w
			}
			wr := ratio(float64(len(cooc[key])), outWeight)
			wRel = 1 + (wl+wr)*ts.tf/maxTF
		}
		if e.features[FeatureSpread] && sentences > 0 {
			wSpread = float64(len(ts.sentences)) / float64(sentences)
		}

		denom := wCase + wFreq/wRel + wSpread/wRel
		if denom == 0 {
			denom = 1
		}
		ts.h = wPos * wRel / denom
	}
}

func (e *Extractor) candidates(chunks [][]token, terms map[string]*termStats, cooc cooccurrence) []*candidate {
	byKey := make(map[string]*candidate)
	for _, chunk := range chunks {
		for i := range chunk {
			for n := 1; n <= e.cfg.NGram && i+n <= len(chunk); n++ {
				gram := chunk[i : i+n]
				if !eligible(gram, terms) {
					continue
				}
				keys := make([]string, n)
				surface := make([]string, n)
				for k, tok := range gram {
					keys[k] = tok.key
					surface[k] = tok.text
				}
				key := strings.Join(keys, " ")
				c, ok := byKey[key]
				if !ok {
					c = &candidate{key: key, surface: strings.Join(surface, " "), terms: keys}
					byKey[key] = c
				}
				c.tf++
			}
		}
	}

	cands := make([]*candidate, 0, len(byKey))
	for _, c := range byKey {
		c.score = score(c, terms, cooc)
		cands = append(cands, c)
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score < cands[j].score
		}
		return cands[i].key < cands[j].key
	})
	return cands
}

// eligible rejects n-grams that start or end with a stopword or contain a
// number.
func eligible(gram []token, terms map[string]*termStats) bool {
	if terms[gram[0].key].stop || terms[gram[len(gram)-1].key].stop {
		return false
	}
	for _, tok := range gram {
		if terms[tok.key].digits {
			return false
		}
	}
	return true
}

func score(c *candidate, terms map[string]*termStats, cooc cooccurrence) float64 {
	prodH, sumH := 1.0, 0.0
	for i, key := range c.terms {
		ts := terms[key]
		if !ts.stop {
			prodH *= ts.h
			sumH += ts.h
			continue
		}
		prev, next := c.terms[i-1], c.terms[i+1]
		prob := ratio(cooc[prev][key], terms[prev].tf) * ratio(cooc[key][next], terms[next].tf)
		prodH *= 2 - prob
		sumH -= 1 - prob
	}
	if sumH == -1 {
		sumH = 0.999999999
	}
	return prodH / (c.tf * (1 + sumH))
}

func (e *Extractor) selectTop(cands []*candidate) []Keyword {
	out := make([]Keyword, 0, min(len(cands), e.cfg.Top))
	var kept []string
	for _, c := range cands {
		if len(out) == e.cfg.Top {
			break
		}
		if e.duplicate(c.key, kept) {
			continue
		}
		kept = append(kept, c.key)
		out = append(out, Keyword{Text: c.surface, Score: c.score})
	}
	return out
}

func (e *Extractor) duplicate(key string, kept []string) bool {
	if e.cfg.DedupLimit >= 1 {
		return false
	}
	for _, k := range kept {
		if e.sim(key, k) > e.cfg.DedupLimit {
			return true
		}
	}
	return false
}

func isAcronym(w string) bool {
	letters := 0
	for _, r := range w {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters > 1
}

func isTitle(w string) bool {
	r, _ := utf8.DecodeRuneInString(w)
	return unicode.IsUpper(r)
}

func isNumeric(w string) bool {
	for _, r := range w {
		if !unicode.IsDigit(r) && r != '-' && r != '\'' {
			return false
		}
	}
	return true
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		sq += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(sq / float64(len(xs)))
}

func median(set map[int]bool) float64 {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	n := len(ids)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return float64(ids[n/2])
	}
	return float64(ids[n/2-1]+ids[n/2]) / 2
}
