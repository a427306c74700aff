package styles

// HighContrastTheme favors legibility on low-quality terminals.
var HighContrastTheme = Theme{
	Name: "high-contrast",
	Base: BaseColors{
		Background: "16",
		Foreground: "231",
		Muted:      "250",
		Accent:     "51",
		Border:     "231",
	},
	Bubble: BubbleColors{
		Own:         "23",
		OwnText:     "231",
		Other:       "16",
		OtherText:   "231",
		Provisional: "250",
	},
	Status: StatusColors{
		Pending: "226",
		Error:   "196",
	},
	Chrome: ChromeColors{
		Header:       "117",
		Footer:       "159",
		SelectedItem: "51",
	},
}
