// internal/genre/builtin.go
package genre

import (
	"github.com/Corphon/StoryPulseMCP/internal/models"
)

// builtinTemplates 五个内置类型模板，模板目录缺失时的兜底数据
func builtinTemplates() []*models.GenreTemplate {
	return []*models.GenreTemplate{
		{
			ID:   "thriller",
			Name: "Thriller",
			Conventions: []models.Convention{
				{Name: "High stakes", Description: "Life, death, or world-level consequences hang on the outcome", Importance: models.ImportanceEssential, ConfidenceWeight: 0.9},
				{Name: "Fast pace", Description: "Relentless forward momentum with escalating obstacles", Importance: models.ImportanceEssential, ConfidenceWeight: 0.8},
				{Name: "Race against time", Description: "A ticking clock or deadline pressures the protagonist", Importance: models.ImportanceTypical, ConfidenceWeight: 0.6},
				{Name: "Cat and mouse dynamic", Description: "Pursuit between hunter and hunted drives the plot", Importance: models.ImportanceTypical, ConfidenceWeight: 0.7},
			},
			PacingProfile: models.PacingCurve{
				Name:  "escalating",
				Curve: []float64{0.4, 0.5, 0.6, 0.65, 0.7, 0.75, 0.85, 0.9, 1.0, 0.6},
			},
			CharacterArchetypes: []string{"ordinary hero", "relentless villain", "unreliable ally"},
			CommonBeats:         []string{"inciting_incident", "midpoint", "climax"},
			AuthenticityRules:   []string{"Maintain high tension throughout", "Time pressure element", "Pursuit dynamic"},
			Subgenres:           []string{"psychological_thriller", "action_thriller", "techno_thriller"},
		},
		{
			ID:   "romance",
			Name: "Romance",
			Conventions: []models.Convention{
				{Name: "Romantic connection", Description: "A central love relationship drives the emotional arc", Importance: models.ImportanceEssential, ConfidenceWeight: 0.9},
				{Name: "Emotional obstacles", Description: "Internal or external barriers keep the lovers apart", Importance: models.ImportanceEssential, ConfidenceWeight: 0.8},
				{Name: "Grand gesture", Description: "A decisive act of devotion resolves the relationship", Importance: models.ImportanceTypical, ConfidenceWeight: 0.6},
			},
			PacingProfile: models.PacingCurve{
				Name:  "wave",
				Curve: []float64{0.3, 0.5, 0.4, 0.6, 0.5, 0.7, 0.55, 0.8, 0.9, 0.4},
			},
			CharacterArchetypes: []string{"lover", "rival suitor", "confidant"},
			CommonBeats:         []string{"inciting_incident", "midpoint", "plot_point_2", "climax"},
			AuthenticityRules:   []string{"Emotional stakes over physical stakes", "Mutual growth of the couple"},
			Subgenres:           []string{"romantic_comedy", "historical_romance"},
		},
		{
			ID:   "horror",
			Name: "Horror",
			Conventions: []models.Convention{
				{Name: "Supernatural fear", Description: "An uncanny or monstrous threat defies rational explanation", Importance: models.ImportanceEssential, ConfidenceWeight: 0.9},
				{Name: "Escalating dread", Description: "Atmosphere tightens from unease to terror", Importance: models.ImportanceEssential, ConfidenceWeight: 0.8},
				{Name: "Isolation", Description: "Characters are cut off from help and escape routes", Importance: models.ImportanceTypical, ConfidenceWeight: 0.6},
			},
			PacingProfile: models.PacingCurve{
				Name:  "dread-spike",
				Curve: []float64{0.3, 0.4, 0.5, 0.45, 0.6, 0.55, 0.7, 0.85, 1.0, 0.5},
			},
			CharacterArchetypes: []string{"skeptic", "survivor", "harbinger"},
			CommonBeats:         []string{"inciting_incident", "plot_point_2", "climax"},
			AuthenticityRules:   []string{"Fear of the unknown over gore", "Rules of the threat stay consistent"},
			Subgenres:           []string{"gothic_horror", "cosmic_horror", "slasher"},
		},
		{
			ID:   "comedy",
			Name: "Comedy",
			Conventions: []models.Convention{
				{Name: "Humor throughout", Description: "Comic situations and witty exchanges recur in every act", Importance: models.ImportanceEssential, ConfidenceWeight: 0.9},
				{Name: "Escalating misunderstanding", Description: "A small deception or mistake compounds into chaos", Importance: models.ImportanceTypical, ConfidenceWeight: 0.7},
				{Name: "Comic timing", Description: "Setups pay off with well-placed reversals", Importance: models.ImportanceOptional, ConfidenceWeight: 0.4},
			},
			PacingProfile: models.PacingCurve{
				Name:  "staccato",
				Curve: []float64{0.4, 0.6, 0.45, 0.65, 0.5, 0.7, 0.55, 0.8, 0.9, 0.5},
			},
			CharacterArchetypes: []string{"comic hero", "straight man", "trickster"},
			CommonBeats:         []string{"inciting_incident", "midpoint", "climax"},
			AuthenticityRules:   []string{"Stakes stay personal and recoverable", "Resolution restores social order"},
			Subgenres:           []string{"romantic_comedy", "dark_comedy", "farce"},
		},
		{
			ID:   "drama",
			Name: "Drama",
			Conventions: []models.Convention{
				{Name: "Emotional depth", Description: "Interior conflict and relationships carry the story", Importance: models.ImportanceEssential, ConfidenceWeight: 0.9},
				{Name: "Character transformation", Description: "The protagonist changes through confronting a flaw or loss", Importance: models.ImportanceEssential, ConfidenceWeight: 0.8},
				{Name: "Moral dilemma", Description: "Choices carry real costs with no clean answer", Importance: models.ImportanceTypical, ConfidenceWeight: 0.6},
			},
			PacingProfile: models.PacingCurve{
				Name:  "slow-burn",
				Curve: []float64{0.3, 0.35, 0.45, 0.5, 0.55, 0.6, 0.7, 0.8, 0.9, 0.5},
			},
			CharacterArchetypes: []string{"flawed protagonist", "estranged relative", "catalyst outsider"},
			CommonBeats:         []string{"inciting_incident", "midpoint", "plot_point_2", "climax"},
			AuthenticityRules:   []string{"Deep emotional exploration", "Significant character growth", "Natural conversation"},
			Subgenres:           []string{"family_drama", "romantic_drama", "medical_drama"},
		},
	}
}
