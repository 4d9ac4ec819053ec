package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shirooni/typebot/internal/chat"
	"github.com/shirooni/typebot/internal/scoring"
	"github.com/shirooni/typebot/internal/store"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━"

// Callback payloads.
const (
	cbShowMenu          = "show_menu"
	cbModePrecision     = "mode_precision"
	cbModeSpeed         = "mode_speed"
	cbPrecisionTest     = "precision_test"
	cbSpeedTest         = "speed_test"
	cbPrecisionTraining = "precision_training"
	cbSpeedTraining     = "speed_training"
	cbLeaderboard       = "leaderboard"
	cbCustomMenu        = "custom_menu"
	cbCustomNew         = "custom_new"
	cbCustomList        = "custom_list"

	prefixTraining    = "_training_"
	prefixCustomStart = "custom_start_"
	prefixCustomBoard = "custom_board_"
	prefixUserStats   = "user_stats_"
)

const (
	loadingFrame = "Load...%d%%"
	introText    = "Ce bot est un Bot spécial d'entraînement pour la vitesse et la précision. Cliquez sur continuer pour commencer."
)

var introKeyboard = chat.Keyboard{chat.Row(chat.Button{Text: "Continuer", Data: cbShowMenu})}

const menuText = `☯️ 𝐒𝐇𝐈𝐑𝐎 𝐎𝐍𝐈 - 𝔾𝕌ℕ ℙ𝔸ℝ𝕂 ☯️
` + rule + `
📝 𝗕𝗜𝗘𝗡𝗩𝗘𝗡𝗨𝗘 𝗗𝗔𝗡𝗦 𝗩𝗢𝗧𝗥𝗘 𝗗𝗢𝗝𝗢 𝗗'𝗘𝗫𝗖𝗘𝗟𝗟𝗘𝗡𝗖𝗘

Maîtrisez les deux piliers fondamentaux :
• 白  - La précision implacable
• 鬼  - La vitesse foudroyante

🎯 𝗢𝗕𝗝𝗘𝗖𝗧𝗜𝗙 𝗨𝗟𝗧𝗜𝗠𝗘 : Atteindre la perfection Gun Park
Devenez un véritable Shiro Oni, où chaque frappe est à la fois
précise comme une lame et rapide comme l'éclair.

` + rule + `

📜 𝗖𝗢𝗠𝗠𝗔𝗡𝗗𝗘𝗦 𝗣𝗥𝗜𝗡𝗖𝗜𝗣𝗔𝗟𝗘𝗦 :

/training - 🥋 Menu d'entraînement complet
/stats - 📊 Analyser vos performances
/leaderboard - 🏆 Classement général
/custom - 📝 Textes personnalisés
/cancel - ✋ Abandonner le test en cours
/help - 📚 Guide détaillé et techniques avancées
/user - 👑 Administration (réservé aux administrateurs)

` + rule + `

"𝙏𝙝𝙚 𝙬𝙤𝙧𝙡𝙙 𝙞𝙨 𝙖𝙡𝙡 𝙖𝙗𝙤𝙪𝙩 𝙧𝙚𝙨𝙪𝙡𝙩𝙨."
                                           - Gun Park`

var menuKeyboard = chat.Keyboard{
	chat.Row(
		chat.Button{Text: "🎯 Mode Précision", Data: cbModePrecision},
		chat.Button{Text: "⚡ Mode Vitesse", Data: cbModeSpeed},
	),
	chat.Row(
		chat.Button{Text: "📝 Textes perso", Data: cbCustomMenu},
		chat.Button{Text: "🏆 Classement", Data: cbLeaderboard},
	),
}

var backRow = chat.Row(chat.Button{Text: "⬅️ Retour au menu", Data: cbShowMenu})

const precisionMenuText = `🎯 𝐌𝐨𝐝𝐞 𝐏𝐫é𝐜𝐢𝐬𝐢𝐨𝐧 - 白 (𝐒𝐡𝐢𝐫𝐨)

` + rule + `

𝗟𝗔 𝗩𝗢𝗜𝗘 𝗗𝗘 𝗟𝗔 𝗣𝗥É𝗖𝗜𝗦𝗜𝗢𝗡

La précision est le fondement de la maîtrise.
Un Shiro Oni doit maintenir une précision parfaite
même à grande vitesse.

💡 "𝘓𝘢 𝘷𝘪𝘵𝘦𝘴𝘴𝘦 𝘴𝘢𝘯𝘴 𝘱𝘳é𝘤𝘪𝘴𝘪𝘰𝘯 𝘯'𝘦𝘴𝘵 𝘲𝘶𝘦 𝘤𝘩𝘢𝘰𝘴"

` + rule + `

𝗖𝗛𝗢𝗜𝗦𝗜𝗦𝗦𝗘𝗭 𝗩𝗢𝗧𝗥𝗘 É𝗣𝗥𝗘𝗨𝗩𝗘 :`

var precisionKeyboard = chat.Keyboard{
	chat.Row(
		chat.Button{Text: "📝 Test de niveau", Data: cbPrecisionTest},
		chat.Button{Text: "🎯 Entraînement", Data: cbPrecisionTraining},
	),
	backRow,
}

const speedMenuText = `⚡ 𝐌𝐨𝐝𝐞 𝐕𝐢𝐭𝐞𝐬𝐬𝐞 - 鬼 (𝐎𝐧𝐢)

` + rule + `

𝗟𝗔 𝗩𝗢𝗜𝗘 𝗗𝗘 𝗟𝗔 𝗩𝗜𝗧𝗘𝗦𝗦𝗘

La vitesse est le chemin vers la transcendance.
Un véritable Oni frappe avec la rapidité de l'éclair.

💡 "𝘓𝘢 𝘷𝘪𝘵𝘦𝘴𝘴𝘦 𝘦𝘴𝘵 𝘭'𝘦𝘴𝘴𝘦𝘯𝘤𝘦 𝘥𝘶 𝘤𝘰𝘮𝘣𝘢𝘵"

` + rule + `

𝗖𝗛𝗢𝗜𝗦𝗜𝗦𝗦𝗘𝗭 𝗩𝗢𝗧𝗥𝗘 É𝗣𝗥𝗘𝗨𝗩𝗘 :`

var speedKeyboard = chat.Keyboard{
	chat.Row(
		chat.Button{Text: "⚡ Test de niveau", Data: cbSpeedTest},
		chat.Button{Text: "🔥 Entraînement", Data: cbSpeedTraining},
	),
	backRow,
}

const rankPickerText = "Choisissez votre niveau actuel pour adapter l'entraînement:"

// rankKeyboard has one row per training rank.
func rankKeyboard(mode scoring.Mode) chat.Keyboard {
	kb := make(chat.Keyboard, 0, len(scoring.TrainingRanks))
	for _, r := range scoring.TrainingRanks {
		kb = append(kb, chat.Row(chat.Button{Text: string(r), Data: string(mode) + prefixTraining + string(r)}))
	}
	return kb
}

const helpText = "🏯 Guide d'utilisation - Shiro Oni\n\n" +
	"1. Choisissez votre mode d'entraînement\n" +
	"2. Suivez les instructions à l'écran\n" +
	"3. Tapez les mots exactement comme indiqué\n" +
	"4. Utilisez 'next' entre chaque test\n\n" +
	"📝 Conseils de maître:\n" +
	"• Évitez de regarder votre clavier\n" +
	"• La précision avant la vitesse\n" +
	"• Entraînement régulier = Progression\n" +
	"• Respirez et restez concentré\n\n" +
	"/cancel abandonne le test en cours."

const (
	msgAccessDenied = rule + "\n⛔ 𝗔𝗖𝗖𝗘𝗦 𝗥𝗘𝗙𝗨𝗦É\n\nCette commande est réservée aux administrateurs.\n" + rule
	msgNoUsers      = rule + "\n👑 𝗔𝗗𝗠𝗜𝗡𝗜𝗦𝗧𝗥𝗔𝗧𝗜𝗢𝗡\n\nAucun utilisateur enregistré.\n" + rule
	msgUserList     = rule + "\n👑 𝗔𝗗𝗠𝗜𝗡𝗜𝗦𝗧𝗥𝗔𝗧𝗜𝗢𝗡\n\nSélectionnez un utilisateur pour voir ses statistiques:\n" + rule
	msgUserNotFound = "Utilisateur non trouvé."
	msgNoStats      = rule + "\n📊 𝗦𝗧𝗔𝗧𝗜𝗦𝗧𝗜𝗤𝗨𝗘𝗦\n\nAucune statistique disponible.\nCommencez l'entraînement pour obtenir vos stats!\n" + rule
)

func userListKeyboard(users []store.UserProfile) chat.Keyboard {
	kb := make(chat.Keyboard, 0, len(users))
	for _, u := range users {
		label := u.DisplayName
		if label == "" {
			label = strconv.FormatInt(u.ID, 10)
		}
		kb = append(kb, chat.Row(chat.Button{Text: label, Data: prefixUserStats + strconv.FormatInt(u.ID, 10)}))
	}
	return kb
}

// statsText renders a profile's per-mode stats. name overrides the stored
// display name when set.
func statsText(u store.UserProfile, name string) string {
	if !u.HasStats() {
		return msgNoStats
	}
	if name == "" {
		name = u.DisplayName
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n📊 𝗦𝗧𝗔𝗧𝗜𝗦𝗧𝗜𝗤𝗨𝗘𝗦\n\n𝗨𝗧𝗜𝗟𝗜𝗦𝗔𝗧𝗘𝗨𝗥: %s\n\n", rule, name)

	if p, ok := u.Stats[string(store.KindPrecision)]; ok {
		fmt.Fprintf(&b, "🎯 𝗧𝗘𝗦𝗧 𝗗𝗘 𝗣𝗥É𝗖𝗜𝗦𝗜𝗢𝗡\n🎯 Précision moyenne: %d%%\n🎯 Meilleure précision: %d%%\n⚡ Vitesse: %d WPM\n🏆 Rang: %s\n\n",
			p.Accuracy, p.BestAccuracy, p.WPM, p.Rank)
	}
	s, ok := u.Stats[string(store.KindSpeed)]
	if ok {
		fmt.Fprintf(&b, "⚡ 𝗧𝗘𝗦𝗧 𝗗𝗘 𝗩𝗜𝗧𝗘𝗦𝗦𝗘\n⚡ Vitesse moyenne: %d WPM\n⚡ Meilleure vitesse: %d WPM\n🎯 Précision: %d%%\n🏆 Rang: %s\n\n",
			s.WPM, s.BestWPM, s.Accuracy, s.Rank)
	}
	if ok && scoring.ShiroOni(s.BestWPM) {
		b.WriteString("🔥 Badge obtenu: 白鬼 (Shiro Oni)\n")
	}
	b.WriteString(rule)
	return b.String()
}

// leaderboardSize caps the global ranking.
const leaderboardSize = 10

var medals = []string{"🥇", "🥈", "🥉"}

func place(i int) string {
	if i < len(medals) {
		return medals[i]
	}
	return fmt.Sprintf("%d.", i+1)
}

func leaderboardText(entries []store.LeaderboardEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n🏆 𝗖𝗟𝗔𝗦𝗦𝗘𝗠𝗘𝗡𝗧 𝗚É𝗡É𝗥𝗔𝗟\n\n", rule)
	if len(entries) == 0 {
		b.WriteString("Aucun résultat pour le moment.\nTerminez un test pour apparaître ici!\n")
	}
	for i, e := range entries[:min(len(entries), leaderboardSize)] {
		fmt.Fprintf(&b, "%s %s : %d WPM · %d%%\n", place(i), e.DisplayName, e.BestWPM, e.BestAccuracy)
	}
	b.WriteString(rule)
	return b.String()
}

const customMenuText = rule + `
📝 𝗧𝗘𝗫𝗧𝗘𝗦 𝗣𝗘𝗥𝗦𝗢𝗡𝗡𝗔𝗟𝗜𝗦É𝗦

Entraînez-vous sur vos propres textes.
Chaque texte a son propre classement.
` + rule

var customMenuKeyboard = chat.Keyboard{
	chat.Row(
		chat.Button{Text: "➕ Nouveau texte", Data: cbCustomNew},
		chat.Button{Text: "📚 Textes disponibles", Data: cbCustomList},
	),
	backRow,
}

const (
	msgEntryText = "📝 Envoyez votre texte (au moins %d caractères).\n/cancel pour annuler."
	msgEntryName = "✅ Texte reçu (%d caractères).\nDonnez-lui un nom (%d caractères max)."
	msgTooShort  = "❌ Texte trop court (%d/%d caractères)."
	msgNoPhrases = "❌ Le texte doit contenir au moins une phrase de %d mots."
	msgNameLong  = "❌ Nom trop long (%d/%d caractères)."
	msgNameEmpty = "❌ Le nom ne peut pas être vide."
	msgSaved     = "✅ Texte « %s » enregistré : %d extraits."
	msgNoTexts   = "Aucun texte personnalisé pour le moment."
	msgTextList  = "📚 Textes disponibles :\n▶️ pour s'entraîner, 🏆 pour le classement."
	msgEntryOff  = "Saisie du texte annulée."
)

var retryKeyboard = chat.Keyboard{chat.Row(
	chat.Button{Text: "➕ Réessayer", Data: cbCustomNew},
	chat.Button{Text: "⬅️ Retour", Data: cbCustomMenu},
)}

func savedKeyboard(id string) chat.Keyboard {
	return chat.Keyboard{chat.Row(
		chat.Button{Text: "▶️ Commencer", Data: prefixCustomStart + id},
		chat.Button{Text: "⬅️ Retour", Data: cbCustomMenu},
	)}
}

func textListKeyboard(texts []store.CustomText) chat.Keyboard {
	kb := make(chat.Keyboard, 0, len(texts)+1)
	for _, t := range texts {
		kb = append(kb, chat.Row(
			chat.Button{Text: "▶️ " + t.Name, Data: prefixCustomStart + t.ID},
			chat.Button{Text: "🏆", Data: prefixCustomBoard + t.ID},
		))
	}
	return append(kb, chat.Row(chat.Button{Text: "⬅️ Retour", Data: cbCustomMenu}))
}

func customBoardText(name string, stats []store.CustomTextStat) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n📈 𝗖𝗟𝗔𝗦𝗦𝗘𝗠𝗘𝗡𝗧 « %s »\n\n", rule, name)
	if len(stats) == 0 {
		b.WriteString("Personne ne s'est encore entraîné sur ce texte.\n")
	}
	for i, s := range stats {
		fmt.Fprintf(&b, "%s %s : %d WPM · %d%%\n", place(i), s.DisplayName, s.WPM, s.Accuracy)
	}
	b.WriteString(rule)
	return b.String()
}
