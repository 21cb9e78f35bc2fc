package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceQuestion(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Сколько стоит потолок 20 м2?", true},
		{"какая стоимость?", true},
		{"почем у вас глянец", true},
		{"посчитайте, пожалуйста", true},
		{"хотя бы примерно", true},
		{"нужен ориентир по цене", true},
		{"добрый день", false},
		{"хочу записаться на замер", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, PriceQuestion(tt.text))
		})
	}
}

func TestAffirmation(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"да", true},
		{"Да, давайте", true},
		{"хорошо, записывайте", true},
		{"ок", true},
		{"подтверждаю!", true},
		{"нет", false},
		{"не надо, спасибо", false},
		{"да, но не сегодня", false},
		{"продам квартиру", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Affirmation(tt.text))
		})
	}
}

func TestNegation(t *testing.T) {
	assert.True(t, Negation("нет, передумал"))
	assert.True(t, Negation("отмена"))
	assert.False(t, Negation("да, давайте"))
	assert.False(t, Negation("монетка"))
}

func TestBookingIntent(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"запишите меня на замер", true},
		{"когда можете приехать?", true},
		{"сможете выехать в Завьялово?", true},
		{"не нужен замер, только цена", false},
		{"без замера посчитайте", false},
		{"сколько стоит", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, BookingIntent(tt.text))
		})
	}
}

func TestMeasurementDeclineAndCalcOnly(t *testing.T) {
	assert.True(t, MeasurementDecline("не надо замер"))
	assert.True(t, MeasurementDecline("посчитайте без замера"))
	assert.False(t, MeasurementDecline("запишите на замер"))

	assert.True(t, CalcOnly("просто стоимость скажите"))
	assert.True(t, CalcOnly("только цену"))
	assert.False(t, CalcOnly("сколько стоит"))
}

func TestMeasurementInfoQuestion(t *testing.T) {
	assert.True(t, MeasurementInfoQuestion("как проходит замер?"))
	assert.True(t, MeasurementInfoQuestion("расскажите про замер"))
	assert.True(t, MeasurementInfoQuestion("это бесплатный замер?"))
	assert.True(t, MeasurementInfoQuestion("у вас бесплатного замера нет?"))
	assert.False(t, MeasurementInfoQuestion("не нужен замер, как проходит замер неважно"))
	assert.False(t, MeasurementInfoQuestion("сколько стоит потолок"))
}

func TestPhoneRefusal(t *testing.T) {
	assert.True(t, PhoneRefusal("не дам телефон"))
	assert.True(t, PhoneRefusal("можно без телефона?"))
	assert.False(t, PhoneRefusal("мой телефон 89121234567"))
}

func TestDiscount(t *testing.T) {
	assert.True(t, Discount("есть какие-то акции?"))
	assert.True(t, Discount("скидки бывают?"))
	assert.True(t, Discount("а подарки?"))
	assert.False(t, Discount("сколько стоит"))
}

func TestHumanEscalation(t *testing.T) {
	assert.True(t, HumanEscalation("позовите менеджера"))
	assert.True(t, HumanEscalation("вы не бот?"))
	assert.True(t, HumanEscalation("хочу человека"))
	assert.False(t, HumanEscalation("сколько стоит потолок"))
}

func TestCeilingTopic(t *testing.T) {
	assert.True(t, CeilingTopic("натяжные потолки в зал"))
	assert.True(t, CeilingTopic("20 м2 со светильниками"))
	assert.False(t, CeilingTopic("продам гараж"))
}
