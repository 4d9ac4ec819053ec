package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/shirooni/typebot/internal/scoring"
	"github.com/shirooni/typebot/internal/store"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━"

const (
	msgContinue      = "Écrivez 'next' pour continuer."
	msgBegin         = "Écrivez 'next' pour commencer."
	msgAnalysing     = "𝙰𝙽𝙰𝙻𝚈𝚂𝙴 𝙴𝙽 𝙲𝙾𝚄𝚁𝚂..."
	msgAnalysisError = "Une erreur est survenue lors de l'analyse des résultats."
	msgInProgress    = "Un test est déjà en cours. Terminez-le avec 'next' ou utilisez /cancel."
	msgCancelled     = "Test annulé. Utilisez /training pour recommencer."
	msgNothingToStop = "Aucun test en cours."
	msgTextNotFound  = "Ce texte personnalisé n'existe plus."
)

const precisionInstructions = rule + `
🎯 𝗧𝗘𝗦𝗧 𝗗𝗘 𝗣𝗥É𝗖𝗜𝗦𝗜𝗢𝗡

𝗢𝗕𝗝𝗘𝗖𝗧𝗜𝗙𝗦:
• Recopier chaque mot avec une précision parfaite
• Les accents sont optionnels
• La vitesse est mesurée mais la précision est primordiale

𝗥È𝗚𝗟𝗘𝗦:
• Minimum 70% de précision pour réussir
• La vitesse influence votre rang final
• Concentrez-vous sur chaque caractère

` + rule + `

` + msgBegin

const speedInstructions = rule + `
⚡ 𝗧𝗘𝗦𝗧 𝗗𝗘 𝗩𝗜𝗧𝗘𝗦𝗦𝗘

𝗢𝗕𝗝𝗘𝗖𝗧𝗜𝗙𝗦:
• Taper le plus rapidement possible
• Maintenir une précision minimum de 70%
• Atteindre le meilleur WPM possible

𝗥È𝗚𝗟𝗘𝗦:
• La vitesse détermine votre rang
• La précision reste importante
• Chaque milliseconde compte

` + rule + `

` + msgBegin

func customInstructions(name string, prompts int) string {
	return fmt.Sprintf(`%s
📝 𝗧𝗘𝗫𝗧𝗘 𝗣𝗘𝗥𝗦𝗢𝗡𝗡𝗔𝗟𝗜𝗦É

« %s »
%d extraits à recopier, mots et phrases mélangés.
La précision et la vitesse sont enregistrées au classement du texte.

%s

%s`, rule, name, prompts, rule, msgBegin)
}

func trainingIntro(mode scoring.Mode, rank scoring.Rank) string {
	label := "précision"
	if mode == scoring.ModeSpeed {
		label = "vitesse"
	}
	return fmt.Sprintf("Entraînement de %s niveau %s\n%s", label, rank, msgBegin)
}

func questionText(prompt string) string {
	return "Q/ " + prompt
}

func countdownText(prompt string, remaining time.Duration) string {
	return fmt.Sprintf("Q/ %s\nTemps restant: %.1fs", prompt, remaining.Seconds())
}

func expiredText(prompt string) string {
	return fmt.Sprintf("Q/ %s\nTemps écoulé! ⏰", prompt)
}

func resultText(r store.Result, adjusted time.Duration, verdict string) string {
	return fmt.Sprintf(`%s
𝗥É𝗦𝗨𝗟𝗧𝗔𝗧𝗦 :

🎯 Précision : %d%%
⚡ Vitesse : %d WPM
⏱️ Temps total : %.2fs
⚡ Temps net (sans marges) : %.2fs

%s
%s

%s`, rule, r.Accuracy, r.WPM, r.Elapsed.Seconds(), adjusted.Seconds(), verdict, rule, msgContinue)
}

// summaryText renders the end-of-test report. position is the 1-based
// place on a custom text's board, zero otherwise.
func summaryText(t *store.ActiveTest, s Summary, textName string, position, entrants int) string {
	var b strings.Builder

	b.WriteString("🏯 𝐒𝐇𝐈𝐑𝐎 𝐎𝐍𝐈 - 𝔾𝕌ℕ ℙ𝔸ℝ𝕂\n")
	switch {
	case t.Kind == store.KindCustom:
		fmt.Fprintf(&b, "Test personnalisé « %s » terminé!\n", textName)
	case t.Kind.Speed():
		b.WriteString("Test de vitesse terminé!\n")
	default:
		b.WriteString("Test de précision terminé!\n")
	}
	b.WriteString("\n" + rule + "\n\n📊 𝗥É𝗦𝗨𝗟𝗧𝗔𝗧𝗦 𝗙𝗜𝗡𝗔𝗨𝗫\n\n")

	if t.Kind.Speed() {
		fmt.Fprintf(&b, "⚡ Vitesse moyenne : %d WPM\n⚡ Meilleure vitesse : %d WPM\n🎯 Précision : %d%%\n",
			s.WPM, s.BestWPM, s.Accuracy)
	} else {
		fmt.Fprintf(&b, "🎯 Précision moyenne : %d%%\n🎯 Meilleure précision : %d%%\n⚡ Vitesse : %d WPM\n",
			s.Accuracy, s.BestAccuracy, s.WPM)
	}
	fmt.Fprintf(&b, "✨ Réussites : %d/%d\n", s.SuccessCount, s.Total)
	if s.TimedOut > 0 {
		fmt.Fprintf(&b, "⏰ Temps écoulés : %d\n", s.TimedOut)
	}

	fmt.Fprintf(&b, "\n🏆 Rang obtenu : %s\n", s.Rank)
	if d := scoring.Describe(s.Rank); d != "" {
		fmt.Fprintf(&b, "%s\n", d)
	}
	if position > 0 {
		fmt.Fprintf(&b, "📈 Classement du texte : %d/%d\n", position, entrants)
	}

	b.WriteString("\n" + rule + "\n\nUtilisez /training pour continuer l'entraînement")
	return b.String()
}
