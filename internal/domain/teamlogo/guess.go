package teamlogo

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	sportlogosBaseURL = "https://raw.githubusercontent.com/sportlogos/football.db.logos/refs/heads/master/"
	luukhopmanBaseURL = "https://raw.githubusercontent.com/luukhopman/football-logos/master/logos/"
	sportsvkBaseURL   = "https://raw.githubusercontent.com/sportsvk/league-logos/main/"
)

var countryPathByLeague = map[string]string{
	"premier league":       "en-england",
	"la liga":              "es-spain",
	"liga bbva":            "es-spain",
	"bundesliga":           "de-germany",
	"1. bundesliga":        "de-germany",
	"serie a":              "it-italy",
	"ligue 1":              "fr-france",
	"eredivisie":           "nl-netherlands",
	"primeira liga":        "pt-portugal",
	"liga nos":             "pt-portugal",
	"mls":                  "us-usa",
	"major league soccer":  "us-usa",
	"scottish premiership": "sc-scotland",
	"süper lig":            "tr-turkey",
	"belgian pro league":   "be-belgium",
	"jupiler pro league":   "be-belgium",
	"austrian bundesliga":  "at-austria",
	"swiss super league":   "ch-switzerland",
}

var luukhopmanFolders = map[string]string{
	"la liga":        "Spain - LaLiga",
	"liga bbva":      "Spain - LaLiga",
	"premier league": "England - Premier League",
	"serie a":        "Italy - Serie A",
	"bundesliga":     "Germany - Bundesliga",
	"1. bundesliga":  "Germany - Bundesliga",
	"ligue 1":        "France - Ligue 1",
	"eredivisie":     "Netherlands - Eredivisie",
	"primeira liga":  "Portugal - Primeira Liga",
	"liga nos":       "Portugal - Primeira Liga",
}

var (
	clubAffixPattern    = regexp.MustCompile(`\b(fc|cf|sc|fk|afc|ac|sk|nk|if|bk|aek|paok|fsv|fcso|united|city|rovers|wanderers|albion|athletic|hotspur|borough|county|town|villa|racing|club|hapoel|maccabi|beitar|dynamo|dinamo|cska|lokomotiv|zenit|spartak|shakhtar|real|inter|olympique|borussia|bayer|eintracht|schalke|tsg|vfb|vfl|sv|as|rc)\b`)
	clubPrefixPattern   = regexp.MustCompile(`(?i)\b(fc|cf|sc|fk|afc|ac|sk|as|rc|cd|real|atlético de|athletic|borussia|bayer|eintracht|olympique|sporting|club de futbol|deportivo|unión|racing|gimnasia y esgrima|estudiantes de|independiente|ca|akademi|nk|if|bk|aek|paok|fsv|fcso|united|city|rovers|wanderers|albion|hotspur|borough|county|town|villa|dynamo|dinamo|cska|lokomotiv|zenit|spartak|shakhtar|hapoel|maccabi|beitar|tsg|vfb|vfl|sv|rb)\s+`)
	guessSpecialPattern = regexp.MustCompile(`[^a-z0-9\s_-]`)
	countryPathStrip    = regexp.MustCompile(`[^a-z0-9-]`)
	spaceRunPattern     = regexp.MustCompile(`\s+`)
)

var shortNamePrefixes = map[string]bool{
	"paris": true, "olympique": true, "borussia": true, "inter": true, "as": true, "ac": true,
}

// NormalizeForGuessing strips common club affixes and punctuation and joins words with "_".
func NormalizeForGuessing(name string) string {
	out := strings.ToLower(name)
	out = clubAffixPattern.ReplaceAllString(out, "")
	out = strings.ReplaceAll(out, ".", "")
	out = strings.ReplaceAll(out, "&", "and")
	out = guessSpecialPattern.ReplaceAllString(out, "")
	out = strings.TrimSpace(out)
	return spaceRunPattern.ReplaceAllString(out, "_")
}

type pattern struct {
	baseURL    string
	extensions []string
	paths      func(team, league string) []string
}

var patterns = []pattern{
	{baseURL: sportlogosBaseURL, extensions: []string{".png"}, paths: sportlogosPaths},
	{baseURL: luukhopmanBaseURL, extensions: []string{".png"}, paths: luukhopmanPaths},
	{baseURL: sportsvkBaseURL, extensions: []string{".png", ".svg"}, paths: sportsvkPaths},
}

func sportlogosPaths(team, league string) []string {
	leagueLower := strings.ToLower(strings.TrimSpace(league))
	teamLower := strings.ToLower(strings.TrimSpace(team))

	countryPath, mapped := countryPathByLeague[leagueLower]
	if !mapped {
		countryPath = countryPathStrip.ReplaceAllString(spaceRunPattern.ReplaceAllString(leagueLower, "-"), "")
	}
	if countryPath == "" || (!mapped && len(countryPath) <= 3) {
		return nil
	}

	variants := []string{spaceRunPattern.ReplaceAllString(teamLower, "")}
	withoutPrefix := spaceRunPattern.ReplaceAllString(strings.TrimSpace(clubPrefixPattern.ReplaceAllString(teamLower, "")), "")
	if withoutPrefix != "" {
		variants = append(variants, withoutPrefix)
	}
	if words := strings.Fields(teamLower); len(words) > 1 && shortNamePrefixes[words[0]] {
		variants = append(variants, words[0])
	}

	return uniquePaths(variants, func(v string) string {
		return "europe/" + countryPath + "/" + v
	})
}

func luukhopmanPaths(team, league string) []string {
	team = strings.TrimSpace(team)
	league = strings.TrimSpace(league)
	if league == "" {
		return []string{url.PathEscape(team)}
	}
	folder, ok := luukhopmanFolders[strings.ToLower(league)]
	if !ok {
		folder = league
	}
	return []string{url.PathEscape(folder) + "/" + url.PathEscape(team)}
}

func sportsvkPaths(team, league string) []string {
	leaguePath := strings.ReplaceAll(NormalizeForGuessing(league), "_", "-")
	base := NormalizeForGuessing(team)
	return uniquePaths([]string{strings.ReplaceAll(base, "_", "-"), base}, func(v string) string {
		if leaguePath == "" {
			return v
		}
		return leaguePath + "/" + v
	})
}

func uniquePaths(variants []string, format func(string) string) []string {
	seen := make(map[string]struct{}, len(variants))
	out := make([]string, 0, len(variants))
	for _, v := range variants {
		if v == "" {
			continue
		}
		p := format(v)
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Candidates lists every guessed logo URL for a team in priority order.
func Candidates(team, league string) []string {
	if strings.TrimSpace(team) == "" {
		return nil
	}
	var out []string
	for _, p := range patterns {
		for _, rel := range p.paths(team, league) {
			for _, ext := range p.extensions {
				out = append(out, p.baseURL+rel+ext)
			}
		}
	}
	return out
}

// Guess returns the first path and extension of the first pattern that yields
// anything. The URL is not checked.
func Guess(team, league string) string {
	if strings.TrimSpace(team) == "" {
		return ""
	}
	for _, p := range patterns {
		paths := p.paths(team, league)
		if len(paths) == 0 {
			continue
		}
		return p.baseURL + paths[0] + p.extensions[0]
	}
	return ""
}
