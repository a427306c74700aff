package styles

// DefaultTheme is the baseline dark palette, teal for the parent's bubbles.
var DefaultTheme = Theme{
	Name: "default",
	Base: BaseColors{
		Background: "234",
		Foreground: "252",
		Muted:      "245",
		Accent:     "37",
		Border:     "240",
	},
	Bubble: BubbleColors{
		Own:         "30",
		OwnText:     "255",
		Other:       "238",
		OtherText:   "252",
		Provisional: "244",
	},
	Status: StatusColors{
		Pending: "220",
		Error:   "203",
	},
	Chrome: ChromeColors{
		Header:       "37",
		Footer:       "110",
		SelectedItem: "75",
	},
}
