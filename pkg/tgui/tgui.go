package tgui

import (
	tele "gopkg.in/telebot.v4"
)

// Button is a telebot inline button.
type Button = tele.Btn

// Inline builds an inline keyboard row by row.
type Inline struct {
	rm   *tele.ReplyMarkup
	rows []tele.Row
}

func NewInline() *Inline {
	return &Inline{rm: &tele.ReplyMarkup{}}
}

// Row appends one row of buttons. Empty rows are ignored.
func (i *Inline) Row(btn ...tele.Btn) *Inline {
	if len(btn) == 0 {
		return i
	}
	i.rows = append(i.rows, i.rm.Row(btn...))
	i.rm.Inline(i.rows...)
	return i
}

// Grid appends btns split into rows of cols buttons.
func (i *Inline) Grid(cols int, btns []tele.Btn) *Inline {
	if cols <= 0 {
		cols = 2
	}
	for start := 0; start < len(btns); start += cols {
		i.Row(btns[start:min(start+cols, len(btns))]...)
	}
	return i
}

func (i *Inline) Markup() *tele.ReplyMarkup { return i.rm }

// Rows reports the number of rows added so far.
func (i *Inline) Rows() int { return len(i.rows) }

// Btn creates a callback button. data is used verbatim; build it with Data.
func Btn(text, data string) tele.Btn {
	return tele.Btn{Text: text, Data: data}
}

// Grid2 splits buttons into two columns and returns a ready ReplyMarkup.
func Grid2(buttons []tele.Btn) *tele.ReplyMarkup {
	return NewInline().Grid(2, buttons).Markup()
}

// ConfirmInline builds a two-button yes/no keyboard.
func ConfirmInline(yes, no tele.Btn) *Inline {
	return NewInline().Row(yes, no)
}
