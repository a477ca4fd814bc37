package moderation

import "regexp"

// Terms are stored lowercased. Accented spellings are listed next to their
// unaccented forms because users type both.

var criticalTerms = []string{
	"violar", "violacion", "violación", "violador", "te voy a violar",
	"te voy a matar", "te mato", "matarte", "asesinar", "te voy a cagar a tiros",
	"cocaina", "cocaína", "merca", "falopa", "narco", "vendo droga", "vendo porro",
	"rape", "kill you", "i will kill you",
}

var highTerms = []string{
	"maricon", "maricón", "trolo", "puto",
	"sudaca", "negro de mierda", "villero",
	"mogolico", "mogólico", "retrasado", "retardado", "autista de mierda",
	"faggot", "retard", "nigger",
}

var mediumTerms = []string{
	"boludo", "boluda", "pelotudo", "pelotuda", "forro", "forra",
	"conchudo", "conchuda", "concha", "la concha de tu madre",
	"pija", "verga", "orto", "culo", "petera",
	"mierda", "puta", "hijo de puta", "hdp", "chupala",
	"garchar", "cogeme",
	"fuck", "shit", "bitch", "pussy",
}

var lowTerms = []string{
	"idiota", "estupido", "estúpido", "imbecil", "imbécil",
	"salame", "tonto", "tonta", "bobo", "boba",
	"inutil", "inútil", "tarado", "tarada",
	"idiot", "stupid", "loser",
}

// leetPattern catches substitutions such as 0 for o on the riskiest terms.
// Matches are reported under the canonical lexicon term.
type leetPattern struct {
	term string
	re   *regexp.Regexp
}

var leetPatterns = []leetPattern{
	{"boludo", regexp.MustCompile(`b[o0]lud[o0]`)},
	{"pelotudo", regexp.MustCompile(`p[e3]l[o0]tud[o0]`)},
	{"puta", regexp.MustCompile(`p[uü][t7][a4@]`)},
	{"puto", regexp.MustCompile(`p[uü][t7][o0]`)},
	{"mierda", regexp.MustCompile(`m[i1!]+[e3]rd[a4@]`)},
	{"concha", regexp.MustCompile(`c[o0]nch[a4@]`)},
	{"pija", regexp.MustCompile(`p[i1!]j[a4@]`)},
	{"hijo de puta", regexp.MustCompile(`h[i1!]j[o0]\s+d[e3]\s+p[uü][t7][a4@]`)},
	{"maricon", regexp.MustCompile(`m[a4@]r[i1!]c[o0]n`)},
	{"mogolico", regexp.MustCompile(`m[o0]g[o0]l[i1!]c[o0]`)},
	{"violar", regexp.MustCompile(`v[i1!][o0]l[a4@]r`)},
	{"te voy a matar", regexp.MustCompile(`t[e3]\s+v[o0]y\s+[a4@]\s+m[a4@][t7][a4@]r`)},
	{"cocaina", regexp.MustCompile(`c[o0]c[a4@][i1!]n[a4@]`)},
	{"fuck", regexp.MustCompile(`f[u\*][c\*]k`)},
}

func termSet(terms ...[]string) map[string]bool {
	set := make(map[string]bool)
	for _, list := range terms {
		for _, t := range list {
			set[t] = true
		}
	}
	return set
}
