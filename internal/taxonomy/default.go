// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package taxonomy

import "fmt"

func w(v float64) *float64 { return &v }

// defaultSpecs is the built-in dementia/reminiscence-therapy taxonomy.
// Phrase terms match case-insensitively; acronym terms match their
// uppercase token exactly, which keeps short forms like AD or MS from
// firing on ordinary words.
var defaultSpecs = []CategorySpec{
	{
		Name:   "Reminiscence therapy & variants",
		Weight: w(3),
		Keywords: []string{
			"reminiscence therapy",
			"life review therapy",
			"memory recall therapy",
			"life story work",
			"narrative therapy",
			"life history approach",
			"storytelling therapy",
			"group reminiscence",
			"life story",
		},
		Acronyms: []string{"RT", "LRT", "LSW", "NT"},
	},
	{
		Name:   "Dementia-related",
		Weight: w(2),
		Keywords: []string{
			"dementia",
			"alzheimers",
			"alzheimer's disease",
			"mild cognitive impairment",
			"neurocognitive disorder",
			"vascular dementia",
			"frontotemporal dementia",
			"lewy body dementia",
		},
		Acronyms: []string{"AD", "MCI", "NCD", "VD", "FTD", "LBD", "BPSD"},
	},
	{
		Name: "Interventions",
	},
	{
		Name:   "Non-pharmacological approaches",
		Parent: "Interventions",
		Keywords: []string{
			"non-pharmacological",
			"nonpharmacological",
			"behavioral intervention",
			"psychosocial intervention",
			"lifestyle intervention",
			"therapeutic activity",
			"occupational therapy",
			"music therapy",
			"art therapy",
			"pet therapy",
			"animal-assisted therapy",
			"exercise therapy",
		},
		Acronyms: []string{"NPI", "PSI", "TA", "OT", "MT", "AT", "AAT", "ET"},
	},
	{
		Name:   "Memory & cognition interventions",
		Parent: "Interventions",
		Keywords: []string{
			"memory intervention",
			"memory training",
			"memory therapy",
			"cognitive training",
			"cognitive stimulation",
			"cognitive rehabilitation",
			"cognitive therapy",
			"brain training",
			"mental stimulation",
			"neurocognitive training",
			"neuropsychological rehabilitation",
		},
		Acronyms: []string{"MI", "MT", "CT", "CS", "CR", "BT", "MS", "NPR"},
	},
	{
		Name:   "Group / social engagement",
		Parent: "Interventions",
		Keywords: []string{
			"social engagement therapy",
			"peer group therapy",
			"community-based therapy",
			"group therapy",
			"group-based",
			"social participation",
			"social engagement",
		},
		// CBT also reads as Cognitive Behavioral Therapy in other contexts.
		Acronyms: []string{"CBT", "SET"},
	},
	{
		Name:   "Adjacent techniques & related terms",
		Parent: "Interventions",
		Keywords: []string{
			"reality orientation therapy",
			"validation therapy",
			"biographical approach",
			"recollection therapy",
		},
		Acronyms: []string{"ROT", "VT"},
	},
}

// Default returns the built-in taxonomy. The specs are fixed at
// compile time, so a validation failure is a programming error.
func Default() *Taxonomy {
	t, err := New(defaultSpecs, nil)
	if err != nil {
		panic(fmt.Sprintf("built-in taxonomy invalid: %v", err))
	}
	return t
}
