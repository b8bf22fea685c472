package i18n

import "github.com/openexams/invigil/internal/engine"

// Catalog resolves the full engine message catalog in the given language.
// Resolution happens once per deployment: proctor warnings are deduplicated
// by string membership, so they must not change between requests.
func Catalog(lang string) engine.Messages {
	m := engine.DefaultMessages

	m.Evaluate.Strong = Lookup(lang, "feedback.strong")
	m.Evaluate.Decent = Lookup(lang, "feedback.decent")
	m.Evaluate.Weak = Lookup(lang, "feedback.weak")
	m.Evaluate.MCQCorrect = Lookup(lang, "feedback.mcq_correct")
	m.Evaluate.MCQIncorrect = Lookup(lang, "feedback.mcq_incorrect")
	m.Evaluate.AIDisclaimer = Lookup(lang, "feedback.ai_disclaimer")

	m.Proctor.Early = Lookup(lang, "warn.early")
	m.Proctor.High = Lookup(lang, "warn.high")
	m.Proctor.Critical = Lookup(lang, "warn.critical")
	m.Proctor.MultipleFaces = Lookup(lang, "warn.multiple_faces")
	m.Proctor.MobilePhone = Lookup(lang, "warn.mobile_phone")
	m.Proctor.CancelRisk = Lookup(lang, "warn.cancel_risk")
	m.Proctor.CancelMobile = Lookup(lang, "warn.cancel_mobile")
	m.Proctor.CancelDeadline = Lookup(lang, "warn.cancel_deadline")

	m.Result.Outstanding = Lookup(lang, "remark.outstanding")
	m.Result.GreatWork = Lookup(lang, "remark.great_work")
	m.Result.GoodProgress = Lookup(lang, "remark.good_progress")
	m.Result.NeedsImprovement = Lookup(lang, "remark.needs_improvement")
	m.Result.Critical = Lookup(lang, "remark.critical")

	return m
}
