package streaming

// defaultPhrases is the home-automation vocabulary the recognizer is biased
// towards: command verbs, rooms, devices and the words that qualify them.
// "[unk]" lets the recognizer emit out-of-vocabulary words instead of forcing
// a match.
var defaultPhrases = []string{
	// verbs
	"schalte", "mach", "stelle", "dimme", "öffne", "schließe", "starte", "stoppe",
	"an", "aus", "ein", "auf", "zu", "hoch", "runter", "heller", "dunkler", "wärmer", "kälter",
	// rooms
	"wohnzimmer", "küche", "schlafzimmer", "badezimmer", "bad", "flur", "büro",
	"kinderzimmer", "esszimmer", "keller", "garage", "garten", "terrasse", "balkon",
	// devices
	"licht", "lampe", "deckenlampe", "stehlampe", "steckdose", "heizung", "thermostat",
	"rollladen", "jalousie", "fenster", "tür", "ventilator", "fernseher", "musik", "radio",
	// qualifiers
	"alle", "alles", "im", "in", "der", "die", "das", "den", "dem", "bitte",
	"prozent", "grad", "temperatur", "helligkeit",
	"eins", "zwei", "drei", "vier", "fünf", "zehn", "zwanzig", "fünfzig", "hundert",
	"[unk]",
}

// DefaultPhraseList returns a copy of the built-in vocabulary.
func DefaultPhraseList() []string {
	out := make([]string, len(defaultPhrases))
	copy(out, defaultPhrases)
	return out
}
