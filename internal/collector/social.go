package collector

import (
	"strings"
	"time"
	"unicode"

	"CryptoSentinel/internal/config"
	"CryptoSentinel/internal/model"
)

// titleWords lowercases a title and splits it on anything that is not a
// letter or digit.
func titleWords(title string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func coinTerms(coin config.CoinConfig) []string {
	terms := []string{strings.ToLower(coin.ID), strings.ToLower(coin.Symbol)}
	for _, a := range coin.Aliases {
		terms = append(terms, strings.ToLower(a))
	}
	return terms
}

// SocialSignalFor counts the videos published within the window whose title
// names the coin by id, symbol or alias. It returns nil when there were no
// videos at all, so the engine can tell "no coverage data" from "no mention".
func SocialSignalFor(coin config.CoinConfig, videos []model.Video, now time.Time, windowDays int) *model.SocialSignal {
	if len(videos) == 0 {
		return nil
	}
	cutoff := now.AddDate(0, 0, -windowDays)
	terms := coinTerms(coin)

	signal := &model.SocialSignal{}
	var latest time.Time
	for _, v := range videos {
		if v.Published.Before(cutoff) || v.Published.After(now) {
			continue
		}
		words := titleWords(v.Title)
		for _, t := range terms {
			if t == "" {
				continue
			}
			if _, ok := words[t]; ok {
				signal.Mentions++
				if v.Published.After(latest) {
					latest = v.Published
				}
				break
			}
		}
	}
	if signal.Mentions > 0 {
		signal.DaysSinceLatest = now.Sub(latest).Hours() / 24
	}
	return signal
}
