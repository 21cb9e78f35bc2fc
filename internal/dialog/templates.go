package dialog

import (
	"fmt"
	"strings"

	"github.com/potolkibot/leadbot/internal/leads"
	"github.com/potolkibot/leadbot/internal/memory"
)

// PromoImageMarker prefixes a reply when the adapter should attach the
// promotional image before sending the text that follows.
const PromoImageMarker = "__PROMO_IMAGE__\n"

const promoDiscountsText = "На каждый второй потолок (меньший по площади) полотно идет в подарок 😊\n" +
	"Если кто-то из ваших близких участник СВО или работник оборонного предприятия — 3-е полотно тоже в подарок.\n" +
	"Скидка на освещение до 50%.\n"

const escalationAck = "Понял(а) ✅ Передал(а) менеджеру — он ответит вам в этом чате."

func hello(first bool) string {
	if first {
		return "Здравствуйте! "
	}
	return ""
}

func welcomeText(first bool) string {
	return hello(first) + "Будем рады помочь 😊\n" +
		"Подскажите, пожалуйста, ваш город и примерную площадь (м²).\n" +
		"Замер бесплатный — мастер приедет с каталогами и образцами."
}

func needCityText(first, again bool) string {
	if again {
		return hello(first) + "Ещё уточню: из какого вы города? Так я смогу сориентировать по стоимости."
	}
	return hello(first) + "Подскажите, пожалуйста, в каком вы городе?"
}

func cityNotSupportedText(first bool, candidate string) string {
	return hello(first) + fmt.Sprintf("Понял(а) вас. Пока, к сожалению, не работаем в городе «%s».\n", candidate) +
		"Сейчас выезжаем по Ижевску и Екатеринбургу (и ближайшим районам).\n" +
		"Если объект в этих городах — напишите город и площадь (м²), сориентирую по стоимости."
}

func needAreaText(first, again bool, city string) string {
	if again {
		return hello(first) + fmt.Sprintf("Чтобы посчитать ориентир для города %s, мне нужна площадь в м². Напишите число, можно примерно.", city)
	}
	return hello(first) + fmt.Sprintf("%s — понял(а).\n", city) +
		"Чтобы назвать ориентир по стоимости, подскажите площадь (м²). Можно примерно."
}

func discountsText(first bool, city string) string {
	cityLine := ""
	if city != "" {
		cityLine = fmt.Sprintf("В %s работаем.\n", city)
	}
	return hello(first) + cityLine +
		"У нас сейчас есть такие акции:\n\n" +
		promoDiscountsText + "\n" +
		"Если хотите — напишите город и площадь (м²), сориентирую по стоимости.\n" +
		"Замер бесплатный — мастер приедет с каталогами и образцами."
}

func estimateText(minPrice int, city string, areaM2 float64, askMeasure bool) string {
	tail := "Если захотите уточнить точнее — замер бесплатный: мастер приедет с каталогами и образцами."
	if askMeasure {
		tail += "\nЗаписать вас на замер?"
	}
	return fmt.Sprintf("Ориентир по стоимости: от %d ₽ ✅\n(%s, %g м²)\n", minPrice, city, areaM2) +
		"Точная цена зависит от углов, светильников и выбранного профиля/материала.\n" + tail
}

func measureInfoText(first bool, city string) string {
	return hello(first) + fmt.Sprintf("В %s выезжаем.\n", city) +
		"Замер бесплатный ✅ Мастер приедет с каталогами и образцами.\n" +
		"Если хотите — запишу на удобные дату и время."
}

func measureIntro(first, introSent bool) string {
	if introSent {
		return "Спасибо! Уточню ещё один момент:"
	}
	return hello(first) + "Отлично, оформим бесплатный замер ✅\n" +
		"Мастер приедет с каталогами и образцами. Уточню один момент:"
}

func askAddressText(intro string, again bool) string {
	if again {
		return intro + "\nОстался адрес: улица, дом и квартира/офис."
	}
	return intro + "\nНапишите, пожалуйста, адрес (улица, дом, квартира/офис)."
}

func askDateText(intro string, again bool) string {
	if again {
		return intro + "\nНа какой день записать мастера? Подойдет формат 19.02 или «19 февраля»."
	}
	return intro + "\nНа какую дату удобно? (например: 19.02 или 19 февраля)"
}

func askTimeText(intro string, again bool) string {
	if again {
		return intro + "\nУточните, пожалуйста, точное время, чтобы мастер приехал вовремя (например: 13:00)."
	}
	return intro + "\nКакое точное время удобно? (например: 13:00)"
}

func askPhoneText(intro string, again bool) string {
	if again {
		return intro + "\nОстался только номер телефона — диспетчер подтвердит по нему заявку (можно 8XXXXXXXXXX)."
	}
	return intro + "\nИ номер телефона для подтверждения заявки (можно 8XXXXXXXXXX)."
}

func leadConfirmationText(mem *memory.Memory, resolvedDate string) string {
	vdate := resolvedDate
	vtime := mem.VisitAt
	if vtime == "" {
		vtime = "-"
	}
	return "Спасибо! Заявка на бесплатный замер принята ✅\n\n" +
		fmt.Sprintf("Город: %s\nАдрес: %s\nТелефон: %s\nДата и время: %s в %s\n\n",
			mem.City, mem.Address, mem.Phone, vdate, vtime) +
		"Мастер/диспетчер подтвердит детали. Если нужно поменять время — просто напишите."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func hotAlertText(userID, text string, mem *memory.Memory, meta Meta) string {
	link := meta.ChatURL
	if link == "" {
		link = meta.ItemURL
	}
	if link == "" {
		link = "https://www.avito.ru/profile/messenger"
	}
	area := "-"
	if mem.AreaM2 > 0 {
		area = fmt.Sprintf("%g", mem.AreaM2)
	}
	return "🔥 Горячий интерес\n" +
		fmt.Sprintf("Chat ID: %s\nГород: %s\nПлощадь: %s\nАдрес: %s\nДата: %s\nВремя: %s\nТелефон: %s\nСсылка: %s\nТекст: %s",
			userID, orDash(mem.City), area, orDash(mem.Address),
			orDash(mem.VisitDay), orDash(mem.VisitAt), orDash(mem.Phone), link, text)
}

func escalationAlertText(platform, userID, text string, meta Meta) string {
	link := meta.ChatURL
	if link == "" {
		link = meta.ItemURL
	}
	return "🆘 Клиент просит менеджера\n" +
		fmt.Sprintf("Платформа: %s\nChat ID: %s\nОбъявление: %s\nСсылка: %s\nСообщение:\n%s",
			platform, userID, orDash(meta.ItemTitle), orDash(link), text)
}

func leadAlertText(lead *leads.Lead) string {
	uname := "-"
	if lead.Username != "" {
		uname = "@" + lead.Username
	}
	area := "-"
	if lead.AreaM2 > 0 {
		area = fmt.Sprintf("%g", lead.AreaM2)
	}
	extras := "-"
	if len(lead.Extras) > 0 {
		extras = strings.Join(lead.Extras, ", ")
	}
	return "📩 Новая заявка на бесплатный замер\n" +
		fmt.Sprintf("Платформа: %s\nUser ID: %s\nUsername: %s\nИмя: %s\nГород: %s\nАдрес: %s\nДата: %s\nВремя: %s\nТелефон: %s\nПлощадь: %s\nДопы: %s",
			lead.Platform, lead.UserID, uname, orDash(lead.Name), orDash(lead.City),
			orDash(lead.Address), orDash(lead.VisitDate), orDash(lead.VisitTime),
			orDash(lead.Phone), area, extras)
}
