package triage

// symptomCategory is one entry of the fixed screening table. Keywords are
// grouped by language (Darija and English) with optional mild/severe phrasing
// variants; all phrases of a category share the category's urgency.
type symptomCategory struct {
	Name     string
	Darija   []string
	English  []string
	Mild     []string
	Severe   []string
	Urgency  Urgency
}

// symptomTable is scanned in order; when two categories match at the same
// urgency the earlier one wins.
var symptomTable = []symptomCategory{
	{
		Name: "preeclampsia",
		Darija: []string{
			"صداع",
			"راسي كيوجعني",
			"البصر مشوش",
			"ما كنشوفش مزيان",
			"ورمة",
			"رجلي ورمو",
		},
		English: []string{"headache", "blurry vision", "swelling", "pain under ribs"},
		Mild:    []string{"خفيف صداع", "slight headache"},
		Severe: []string{
			"vision blurry",
			"البصر مشوش",
			"headache severe",
			"صداع قوي بزاف",
		},
		Urgency: UrgencyHigh,
	},
	{
		Name:    "gestational_diabetes",
		Darija:  []string{"عطش بزاف", "كنتبول بزاف", "تعب"},
		English: []string{"excessive thirst", "frequent urination", "fatigue"},
		Urgency: UrgencyMedium,
	},
	{
		Name:    "preterm_labor",
		Darija:  []string{"ألم", "انقباضات", "كرشي كيوجعني", "ظهري كيوجعني"},
		English: []string{"contractions", "pain", "cramping", "back pain"},
		Urgency: UrgencyCritical,
	},
	{
		Name:    "bleeding",
		Darija:  []string{"دم", "نزيف", "كنفرس"},
		English: []string{"bleeding", "blood", "spotting"},
		Urgency: UrgencyCritical,
	},
}

func (c symptomCategory) allKeywords() []string {
	out := make([]string, 0, len(c.Darija)+len(c.English)+len(c.Mild)+len(c.Severe))
	out = append(out, c.Darija...)
	out = append(out, c.English...)
	out = append(out, c.Mild...)
	out = append(out, c.Severe...)
	return out
}
