package parser

// amountKeywords lists phrases that precede a paid total, highest priority first.
// The slice index is the keyword rank.
var amountKeywords = []string{
	"сумма платежа",
	"сумма перевода",
	"сумма операции",
	"итого к оплате",
	"итого",
	"к оплате",
	"оплачено",
	"сумма",
	"всего",
	"total",
	"amount",
}

// badContext marks a nearby number as something other than the paid total.
var badContext = []string{
	"комисси",
	"commission",
	"fee",
	"счет",
	"счёт",
	"account",
	"телефон",
	"phone",
	"идентификатор",
	"identifier",
	"инн",
	"бик",
	"кпп",
	"bic",
	"баланс",
	"остаток",
	"balance",
	"авторизац",
	"authorization",
}

// maskMarkers show up around masked card and account numbers.
var maskMarkers = []string{"*", "•"}

// dateContext marks a snippet as talking about the moment of the operation.
var dateContext = []string{
	"дата",
	"время",
	"операци",
	"перевод",
	"платеж",
	"платёж",
	"оплат",
	"date",
	"time",
	"transaction",
}

var genitiveMonths = map[string]int{
	"января":   1,
	"февраля":  2,
	"марта":    3,
	"апреля":   4,
	"мая":      5,
	"июня":     6,
	"июля":     7,
	"августа":  8,
	"сентября": 9,
	"октября":  10,
	"ноября":   11,
	"декабря":  12,
}
