// Package safety holds the two pure pieces of the message pipeline: the risk
// classifier, which maps message text to a RiskAssessment, and the response
// composer, which maps an assessment to crisis copy, hotlines, and actions.
// Neither function performs I/O; both are safe for concurrent use.
package safety

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/wellness-chat-backend/internal/domain"
)

// Cultural context labels attached to assessments.
const (
	ContextAcademic = "academic_pressure"
	ContextFamily   = "family_conflict"
)

type pattern struct {
	name string
	re   *regexp.Regexp
}

type riskTier struct {
	level    domain.RiskLevel
	patterns []pattern
}

func p(name, expr string) pattern {
	return pattern{name: name, re: regexp.MustCompile(expr)}
}

// tiers is evaluated in order; the first tier with any match wins.
var tiers = []riskTier{
	{domain.RiskImminent, []pattern{
		p("imminent_timing", `\b(end(ing)? (it|it all|my life|everything)|kill(ing)? myself|take my (own )?life|commit(ting)? suicide)\b.{0,40}\b(tonight|today|right now|this (evening|night|weekend)|in (a few|an) (minutes?|hours?))\b`),
		p("imminent_timing", `\b(tonight|today|right now)\b.{0,40}\b(end(ing)? (it|my life)|kill(ing)? myself|take my (own )?life|commit(ting)? suicide)\b`),
		p("method_at_hand", `\b(i have|i've got|i got|i bought|holding)\b.{0,30}\b(pills|rope|gun|blade|razor|poison)\b.{0,40}\b(ready|right now|tonight|in my hand|with me)\b`),
		p("farewell", `\b(goodbye|farewell) (forever|everyone|world|cruel world)\b|\bthis is my (last|final) (message|goodbye)\b|\bwon'?t be (here|around|alive) (tomorrow|anymore|much longer)\b`),
	}},
	{domain.RiskHigh, []pattern{
		p("stated_plan", `\b(i'?m (going|planning) to|i am (going|planning) to|i will|i'?ll|i have a plan to|my plan is to|i've decided to|i have decided to)\b.{0,20}\b(kill myself|end (it|it all|my life)|take my (own )?life|commit suicide)\b`),
		p("method_seeking", `\b(how (to|do i|can i|many|much)|best way to|painless way to|easiest way to|quickest way to)\b.{0,40}\b(kill myself|die|suicide|overdose|hang myself|end (it|my life))\b`),
		p("suicide_note", `\b(suicide (plan|note)|wrote (a|my) (goodbye|suicide) (note|letter))\b`),
	}},
	{domain.RiskModerate, []pattern{
		p("want_to_die", `\b(want|wanna|wish) to die\b|\bwant to be dead\b`),
		p("better_off_dead", `\bbetter off dead\b|\b(everyone|they|the world|my family) (would be|is|are|'d be) better (off )?without me\b`),
		p("suicidal_ideation", `\bsuicidal\b|\bthinking (about|of) (suicide|killing myself|ending (it|my life))\b`),
		p("kill_myself", `\b(kill myself|end my life|take my (own )?life|ending it all)\b`),
	}},
	{domain.RiskLow, []pattern{
		p("passive_wish", `\bwish (i was|i were) (dead|gone|never born)\b|\bwish i('d| had) never been born\b`),
		p("not_wake_up", `\b(don'?t|do not) want to wake up\b|\bhope i (don'?t|never) wake up\b`),
		p("no_point_living", `\bno (point|reason) (in )?(living|to live|going on)\b|\bwhat'?s the point (of|in) living\b`),
		p("tired_of_living", `\btired of (living|being alive|life)\b|\bwant to disappear\b`),
	}},
}

// selfHarm escalates to at least moderate but never demotes a higher verdict.
var selfHarm = []pattern{
	p("cutting", `\b(cut(ting)?|slit(ting)?) (myself|my (wrists?|arms?|legs?|skin|thighs?))\b`),
	p("burning", `\bburn(ing|ed|t)? (myself|my (skin|arms?|hands?))\b`),
	p("overdose", `\b(overdos(e|ing|ed)|took too many pills|swallow(ed)? (all )?(the|my) pills)\b`),
	p("self_harm", `\bself[- ]?harm(ing)?\b|\bhurt(ing)? myself\b`),
}

var cultural = []pattern{
	p(ContextAcademic, `\b(exams?|board exams?|boards|jee|neet|upsc|marks|grades?|results|entrance test|coaching|semester|cgpa|gpa|studies|tuition)\b`),
	p(ContextFamily, `\b(parents?|mom|mum|dad|father|mother|family|in-?laws|relatives)\b.{0,40}\b(fight|fighting|argue|arguing|shout|shouting|yell|yelling|angry|disappointed|force|forcing|marriage|expectations?|don'?t understand)\b`),
	p(ContextFamily, `\b(fight|fighting|argue|arguing|shout|shouting|yell|yelling|forced)\b.{0,40}\b(parents?|mom|mum|dad|father|mother|family|in-?laws|relatives)\b`),
}

var spaceRE = regexp.MustCompile(`\s+`)

// normalize folds case and compatibility forms so "I’M" and "i'm" compare equal.
func normalize(text string) string {
	s := norm.NFKC.String(text)
	s = cases.Fold().String(s)
	s = strings.NewReplacer("’", "'", "‘", "'", "`", "'").Replace(s)
	return strings.TrimSpace(spaceRE.ReplaceAllString(s, " "))
}

// Classify assesses text for self-harm risk. It is deterministic and
// side-effect free. Empty or whitespace-only text is classified as none.
func Classify(text string) domain.RiskAssessment {
	out := domain.RiskAssessment{RiskLevel: domain.RiskNone, Indicators: []string{}}
	s := normalize(text)
	if s == "" {
		return out
	}

	for _, t := range tiers {
		if names := matchAll(t.patterns, s); len(names) > 0 {
			out.RiskLevel = t.level
			out.Indicators = names
			break
		}
	}

	if harm := matchAll(selfHarm, s); len(harm) > 0 {
		if out.RiskLevel.Rank() < domain.RiskModerate.Rank() {
			out.RiskLevel = domain.RiskModerate
		}
		out.Indicators = appendUnique(out.Indicators, harm...)
	}

	for _, c := range cultural {
		if c.re.MatchString(s) {
			out.CulturalContext = c.name
			break
		}
	}

	out.RequiresImmediate = out.RiskLevel.RequiresImmediate()
	return out
}

func matchAll(ps []pattern, s string) []string {
	var names []string
	for _, pt := range ps {
		if pt.re.MatchString(s) {
			names = appendUnique(names, pt.name)
		}
	}
	return names
}

func appendUnique(dst []string, vals ...string) []string {
	for _, v := range vals {
		seen := false
		for _, d := range dst {
			if d == v {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, v)
		}
	}
	return dst
}
