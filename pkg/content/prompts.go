package content

import (
	"strings"

	"github.com/coachastral/astro-daily/pkg/astrology"
	"github.com/coachastral/astro-daily/pkg/rewrite"
)

// System instructions for the three rewrite contracts in use.
const (
	systemTranslator = "Eres un traductor profesional EN->ES. Traduces fielmente y con español natural, sin añadir contenido."
	systemRedactor   = "Eres un redactor profesional en español (España)."
	systemDivulgador = "Eres un divulgador experto en astrología, claro, didáctico y con humor sutil."
)

// tarotResponseKeys is the exact JSON shape the tarot translation must
// return.
var tarotResponseKeys = []string{"amor", "trabajo", "dinero_y_fortuna"}

// moonTranslationPrompt asks for a strict fidelity translation of the moon
// report: nothing added, nothing dropped, not labeled as a translation.
func moonTranslationPrompt(report *astrology.MoonPhase) string {
	source := rewrite.JoinFields([]rewrite.Field{
		{Label: "FASE LUNAR", Text: report.Phase},
		{Label: "SIGNIFICADO", Text: report.Significance},
		{Label: "INFORME", Text: report.Report},
	})
	return strings.Join([]string{
		"A continuación tienes un texto REAL en inglés procedente de una API.",
		"Tu tarea es ÚNICAMENTE traducirlo al español de forma fiel y natural.",
		"",
		"REGLAS:",
		"- Traduce fielmente el contenido.",
		"- No añadas información nueva.",
		"- No elimines ideas.",
		"- No resumas.",
		"- No interpretes.",
		"- No menciones que es una traducción.",
		"",
		"FORMATO DE SALIDA:",
		"- Incluye estas 3 etiquetas tal cual, cada una en su propia línea:",
		"  FASE LUNAR:",
		"  SIGNIFICADO:",
		"  INFORME:",
		"- Debajo de cada etiqueta, el texto traducido correspondiente.",
		"- NO añadas listas ni títulos extra.",
		"",
		"CONTENIDO A TRADUCIR:",
		source,
	}, "\n")
}

// tarotTranslationPrompt asks for a natural Spanish adaptation of the
// reading, returned as a strict JSON object.
func tarotTranslationPrompt(reading *astrology.TarotReading) string {
	source := rewrite.JoinFields([]rewrite.Field{
		{Label: "LOVE", Text: reading.Love},
		{Label: "CAREER", Text: reading.Career},
		{Label: "FINANCE", Text: reading.Finance},
	})
	return strings.Join([]string{
		"Vas a traducir y adaptar a español de España el texto de una lectura de tarot.",
		"Objetivo: que suene natural, correcto, claro y con tono de coaching (cercano, directo, sin exageraciones).",
		"Reglas:",
		"- No inventes información, solo traduce y adapta.",
		"- Evita anglicismos y frases forzadas.",
		"- Mantén el sentido original.",
		"- No uses \"etc.\" ni puntos suspensivos.",
		"- Devuelve ÚNICAMENTE un JSON válido con estas claves exactas:",
		"  - \"amor\"",
		"  - \"trabajo\"",
		"  - \"dinero_y_fortuna\"",
		"",
		"Texto (EN):",
		source,
	}, "\n")
}

// articlePrompt asks for the free editorial daily piece grounded on real
// sky movements only.
func articlePrompt(dateISO string) string {
	return strings.Join([]string{
		"Hoy es " + dateISO + ".",
		"",
		"Antes de escribir el artículo, identifica y utiliza únicamente movimientos astrológicos reales que estén ocurriendo hoy (por ejemplo: posición general de la Luna, retrogradaciones activas, aspectos planetarios relevantes a nivel general).",
		"",
		"No inventes configuraciones planetarias.",
		"No fuerces eventos que no estén ocurriendo hoy.",
		"Si algún movimiento no es relevante, no lo incluyas.",
		"",
		"Con esta información real, escribe un artículo diario de astrología general (no por signos) con un enfoque divulgativo, educativo y cercano, dirigido a personas que no saben astrología pero quieren entender cómo influye en el día a día.",
		"",
		"El artículo debe ser LARGO, desarrollado y fácil de leer.",
		"",
		"Estructura obligatoria del artículo:",
		"1. Título atractivo y cercano, sin tecnicismos.",
		"2. Introducción breve: la astrología como \"clima emocional\" colectivo.",
		"3. Qué está pasando hoy en el cielo, explicado fácil.",
		"4. Cómo puede afectar a las personas en general (emociones, mente, energía).",
		"5. Qué significa esto dentro de la astrología (explicación pedagógica).",
		"6. Cierre reflexivo: conciencia, sin predicciones ni destino.",
		"",
		"Tono:",
		"- Cercano, humano y educativo",
		"- Con pequeñas pinceladas de ironía inteligente y humor suave",
		"- Nada místico, nada fatalista",
		"- Nada de horóscopo por signos",
		"- Nada de predicciones personales",
		"",
		"Puedes usar emojis de forma sutil y elegante, sin pasarte.",
		"Párrafos cortos y títulos claros.",
	}, "\n")
}
