package streaming

import "encoding/json"

// SampleRate is the rate of the PCM the engine is fed.
const SampleRate = 16000

// eofFrame tells the recognizer no more audio follows.
var eofFrame = []byte(`{"eof":1}`)

type configFrame struct {
	Config recognizerConfig `json:"config"`
}

type recognizerConfig struct {
	SampleRate      int      `json:"sample_rate"`
	Words           bool     `json:"words"`
	MaxAlternatives int      `json:"max_alternatives"`
	PhraseList      []string `json:"phrase_list"`
}

func newConfigFrame(phrases []string) configFrame {
	return configFrame{Config: recognizerConfig{
		SampleRate:      SampleRate,
		Words:           false,
		MaxAlternatives: 0,
		PhraseList:      phrases,
	}}
}

// replyFrame is a recognizer message. Partial hypotheses carry Partial;
// finished utterances carry Text.
type replyFrame struct {
	Partial string `json:"partial"`
	Text    string `json:"text"`
}

func decodeReply(data []byte) (replyFrame, error) {
	var f replyFrame
	err := json.Unmarshal(data, &f)
	return f, err
}
