package deepgram

type deepgramVoice string

const defaultVoice deepgramVoice = "aura-2-celeste-es"

var availableVoices = []deepgramVoice{
	"aura-2-celeste-es",
	"aura-2-estrella-es",
	"aura-2-nestor-es",
	"aura-2-sirio-es",
	"aura-2-carina-es",
	"aura-2-alvaro-es",
	"aura-2-diana-es",
	"aura-2-aquila-es",
	"aura-2-selena-es",
	"aura-2-javier-es",
	"aura-2-thalia-en",
	"aura-2-andromeda-en",
}

func GetAvailableVoices() []deepgramVoice {
	return availableVoices
}
