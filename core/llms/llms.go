// Package llms holds the provider independent pieces shared by the reply
// generators.
package llms

// DefaultInstructions keep replies short enough to be spoken back.
const DefaultInstructions = "Eres un asistente de voz que puede ver lo que el usuario le muestra. " +
	"Responde en español, en una o dos frases naturales y breves, aptas para ser leídas en voz alta. " +
	"No uses listas, emojis ni formato markdown."

type GenerateOptions struct {
	// Instructions replace the generator's system instructions
	Instructions string
	// Stream is called with every content chunk as it arrives. Not supported
	// by all generators.
	Stream func(chunk string)
}

type GenerateOption func(*GenerateOptions)

func WithInstructions(instructions string) GenerateOption {
	return func(o *GenerateOptions) { o.Instructions = instructions }
}

func WithStream(stream func(chunk string)) GenerateOption {
	return func(o *GenerateOptions) { o.Stream = stream }
}
