package services

import (
	"golang.org/x/text/language"
)

// Supported user interface languages. English is the fallback.
var supportedLanguages = []language.Tag{language.English, language.Chinese}

var languageMatcher = language.NewMatcher(supportedLanguages)

// LevelInfo describes a user's experience tier.
type LevelInfo struct {
	Level     int    `json:"level"`
	Title     string `json:"title"`
	TitleEN   string `json:"title_en"`
	NextLevel int64  `json:"next_level"`
}

type levelTier struct {
	level   int
	titleEN string
	titleZH string
}

var tiers = [...]levelTier{
	{1, "Tarot Beginner", "塔罗初学者"},
	{2, "Regular Tarot Reader", "普通塔罗师"},
	{3, "Tarot Elite", "塔罗精英"},
	{4, "Senior Tarot Reader", "资深塔罗师"},
	{5, "Tarot Master", "塔罗大师"},
}

// LevelFor maps experience to a tier. Title is rendered in lang (en or zh;
// anything else falls back to English). Exactly 1000 XP stays on level 2
// with 2000 as the next threshold.
func LevelFor(xp int64, lang string) LevelInfo {
	var idx int
	var next int64
	switch {
	case xp < 500:
		idx, next = 0, 500
	case xp < 1000:
		idx, next = 1, 1000
	case xp == 1000:
		idx, next = 1, 2000
	case xp < 2000:
		idx, next = 2, 2000
	case xp < 5000:
		idx, next = 3, 5000
	default:
		idx, next = 4, 10000
	}
	t := tiers[idx]
	title := t.titleEN
	if matchLanguage(lang) == language.Chinese {
		title = t.titleZH
	}
	return LevelInfo{Level: t.level, Title: title, TitleEN: t.titleEN, NextLevel: next}
}

// matchLanguage returns the supported base tag closest to lang.
func matchLanguage(lang string) language.Tag {
	tag, err := language.Parse(lang)
	if err != nil {
		return language.English
	}
	_, idx, conf := languageMatcher.Match(tag)
	if conf == language.No {
		return language.English
	}
	return supportedLanguages[idx]
}

// ValidLanguage reports whether code is an accepted language setting.
func ValidLanguage(code string) bool {
	return code == "en" || code == "zh"
}
