// ABOUTME: Labeled scenarios for the topic assignment benchmark
// ABOUTME: Each text carries a hand-assigned label; topic names chosen by the model are never compared directly

package eval

// Scenario is one labeled corpus to classify
type Scenario struct {
	ID          string
	Name        string
	Description string
	Items       []LabeledText
	Thresholds  Thresholds
}

// LabeledText is a text and the theme a human filed it under
type LabeledText struct {
	Text  string
	Label string
}

// Thresholds are the minimum scores for a scenario to pass
type Thresholds struct {
	Coverage  float64
	Agreement float64
}

// DefaultThresholds apply when a scenario leaves Thresholds zero
var DefaultThresholds = Thresholds{Coverage: 0.95, Agreement: 0.75}

// Texts returns the scenario texts in order
func (s Scenario) Texts() []string {
	texts := make([]string, len(s.Items))
	for i, item := range s.Items {
		texts[i] = item.Text
	}
	return texts
}

func (s Scenario) thresholds() Thresholds {
	t := s.Thresholds
	if t.Coverage == 0 {
		t.Coverage = DefaultThresholds.Coverage
	}
	if t.Agreement == 0 {
		t.Agreement = DefaultThresholds.Agreement
	}
	return t
}

// GetRetailSurvey returns English customer feedback with three clear themes
func GetRetailSurvey() Scenario {
	return Scenario{
		ID:          "retail",
		Name:        "Retail customer survey",
		Description: "Delivery, staff and pricing complaints and praise from an online store",
		Items: []LabeledText{
			{"My parcel arrived four days later than promised.", "delivery"},
			{"The courier left the box in the rain and it was soaked.", "delivery"},
			{"Tracking said delivered but nothing came for two days.", "delivery"},
			{"Shipping took almost two weeks.", "delivery"},
			{"Fast delivery, arrived the next morning.", "delivery"},
			{"The support agent was patient and solved my issue quickly.", "staff"},
			{"Store staff ignored me for ten minutes at the counter.", "staff"},
			{"Very friendly cashier, made my day.", "staff"},
			{"Nobody at the help desk knew how returns work.", "staff"},
			{"Prices went up again this month.", "price"},
			{"Cheaper than every other shop I checked.", "price"},
			{"The discount code did not apply at checkout.", "price"},
			{"Too expensive for what you get.", "price"},
		},
	}
}

// GetMunicipalKPT returns Japanese keep/problem/try feedback from a municipal workshop
func GetMunicipalKPT() Scenario {
	return Scenario{
		ID:          "kpt",
		Name:        "Municipal KPT workshop",
		Description: "Japanese feedback on public transport, childcare and disaster readiness",
		Items: []LabeledText{
			{"バスの本数が少なくて通勤に使えない", "transport"},
			{"駅前の駐輪場がいつも満車", "transport"},
			{"コミュニティバスの路線を増やしてほしい", "transport"},
			{"終電が早すぎる", "transport"},
			{"保育園の空きがなく職場復帰できない", "childcare"},
			{"子育て支援センターのスタッフが親切", "childcare"},
			{"病児保育をもっと利用しやすくしてほしい", "childcare"},
			{"避難所の場所がわかりにくい", "disaster"},
			{"防災訓練に若い人の参加が少ない", "disaster"},
			{"ハザードマップを各家庭に配布してほしい", "disaster"},
			{"防災無線が聞き取りにくい", "disaster"},
		},
		Thresholds: Thresholds{Coverage: 0.9, Agreement: 0.7},
	}
}

// GetShortAnswers returns very short and ambiguous answers that should mostly land in the catch-all
func GetShortAnswers() Scenario {
	return Scenario{
		ID:          "short",
		Name:        "Short and ambiguous answers",
		Description: "One-word replies mixed with a few substantive comments",
		Items: []LabeledText{
			{"ok", "noise"},
			{"n/a", "noise"},
			{"-", "noise"},
			{"nothing", "noise"},
			{"The app crashes every time I open the camera.", "bugs"},
			{"Login fails with an unknown error after the update.", "bugs"},
			{"The settings page freezes on Android.", "bugs"},
			{"Please add a dark mode.", "features"},
			{"I would like to export my data as CSV.", "features"},
			{"Offline mode would be great.", "features"},
		},
		Thresholds: Thresholds{Coverage: 0.9, Agreement: 0.6},
	}
}

// GetAllScenarios returns every built-in scenario
func GetAllScenarios() []Scenario {
	return []Scenario{
		GetRetailSurvey(),
		GetMunicipalKPT(),
		GetShortAnswers(),
	}
}

// GetScenario looks up a built-in scenario by ID
func GetScenario(id string) (Scenario, bool) {
	for _, s := range GetAllScenarios() {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}
