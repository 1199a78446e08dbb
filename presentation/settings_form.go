package presentation

import (
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"smartbuyer-go/core/apperr"
	"smartbuyer-go/domain/countdown"
	"smartbuyer-go/domain/settings"
)

// SettingsForm edits the monitoring settings. Fields the form does not
// show are carried over from the last settings passed to SetSettings.
type SettingsForm struct {
	container fyne.CanvasObject
	base      settings.Settings

	// Form fields
	boxEntry       *widget.Entry
	buyEntry       *widget.Entry
	confirmEntry   *widget.Entry
	confirmCheck   *widget.Check
	delayEntry     *widget.Entry
	intervalEntry  *widget.Entry
	retriesEntry   *widget.Entry
	thresholdEntry *widget.Entry
	vanishCheck    *widget.Check
	formatsEntry   *widget.Entry
	presetSelect   *widget.Select
	tesseractEntry *widget.Entry
}

// NewSettingsForm creates a settings form. presets lists the available
// format preset names.
func NewSettingsForm(presets []string) *SettingsForm {
	f := &SettingsForm{base: settings.Default()}
	f.build(presets)
	return f
}

func (f *SettingsForm) build(presets []string) {
	f.boxEntry = widget.NewEntry()
	f.boxEntry.SetPlaceHolder("left, top, right, bottom")

	f.buyEntry = widget.NewEntry()
	f.buyEntry.SetPlaceHolder("x, y")

	f.confirmEntry = widget.NewEntry()
	f.confirmEntry.SetPlaceHolder("x, y")
	f.confirmCheck = widget.NewCheck("Click confirm", func(on bool) {
		if on {
			f.confirmEntry.Enable()
		} else {
			f.confirmEntry.Disable()
		}
	})

	f.delayEntry = widget.NewEntry()
	f.delayEntry.SetPlaceHolder("seconds between clicks")

	f.intervalEntry = widget.NewEntry()
	f.intervalEntry.SetPlaceHolder("seconds between reads")

	f.retriesEntry = widget.NewEntry()
	f.retriesEntry.SetPlaceHolder("consecutive misses before abort")

	f.thresholdEntry = widget.NewEntry()
	f.thresholdEntry.SetPlaceHolder("fire at or below (seconds)")

	f.vanishCheck = widget.NewCheck("Fire when countdown disappears", nil)

	f.formatsEntry = widget.NewMultiLineEntry()
	f.formatsEntry.SetPlaceHolder("one pattern per line, or preset:<name>")
	f.formatsEntry.SetMinRowsVisible(4)

	f.presetSelect = widget.NewSelect(presets, func(name string) {
		if name == "" {
			return
		}
		ref := countdown.PresetPrefix + name
		if !strings.Contains(f.formatsEntry.Text, ref) {
			f.formatsEntry.SetText(strings.TrimSpace(f.formatsEntry.Text + "\n" + ref))
		}
	})
	f.presetSelect.PlaceHolder = "Add preset"

	f.tesseractEntry = widget.NewEntry()
	f.tesseractEntry.SetPlaceHolder("auto-detect")

	// Use widget.Form for proper label-input alignment
	form := widget.NewForm(
		widget.NewFormItem("Countdown Box", f.boxEntry),
		widget.NewFormItem("Buy Button", f.buyEntry),
		widget.NewFormItem("Confirm Button", container.NewBorder(nil, nil, nil, f.confirmCheck, f.confirmEntry)),
		widget.NewFormItem("Click Delay", f.delayEntry),
		widget.NewFormItem("Check Interval", f.intervalEntry),
		widget.NewFormItem("Max Retries", f.retriesEntry),
		widget.NewFormItem("Trigger At", container.NewBorder(nil, nil, nil, f.vanishCheck, f.thresholdEntry)),
		widget.NewFormItem("Formats", container.NewBorder(nil, f.presetSelect, nil, nil, f.formatsEntry)),
		widget.NewFormItem("Tesseract", f.tesseractEntry),
	)

	f.container = container.NewPadded(form)
}

// Container returns the form container.
func (f *SettingsForm) Container() fyne.CanvasObject {
	return f.container
}

// SetSettings populates the form.
func (f *SettingsForm) SetSettings(s settings.Settings) {
	f.base = s.Clone()

	f.boxEntry.SetText(formatInts(s.CountdownBox))
	f.buyEntry.SetText(formatInts(s.BuyButton))
	f.confirmEntry.SetText(formatInts(s.ConfirmButton))
	f.confirmCheck.SetChecked(s.EnableConfirmClick)
	f.delayEntry.SetText(formatFloat(s.ClickDelay))
	f.intervalEntry.SetText(formatFloat(s.CheckInterval))
	f.retriesEntry.SetText(strconv.Itoa(s.MaxRetries))
	f.thresholdEntry.SetText(strconv.Itoa(s.TriggerThreshold))
	f.vanishCheck.SetChecked(s.FireOnVanish)
	f.formatsEntry.SetText(strings.Join(s.CountdownFormats, "\n"))
	f.tesseractEntry.SetText(s.TesseractPath)
}

// Settings reads the form into a validated settings snapshot.
func (f *SettingsForm) Settings() (settings.Settings, error) {
	s := f.base.Clone()
	var err error

	if s.CountdownBox, err = parseInts("countdown_box", f.boxEntry.Text, 4); err != nil {
		return s, err
	}
	if s.BuyButton, err = parseInts("buy_btn_pos", f.buyEntry.Text, 2); err != nil {
		return s, err
	}
	s.EnableConfirmClick = f.confirmCheck.Checked
	if s.EnableConfirmClick || strings.TrimSpace(f.confirmEntry.Text) != "" {
		if s.ConfirmButton, err = parseInts("confirm_btn_pos", f.confirmEntry.Text, 2); err != nil {
			return s, err
		}
	}
	if s.ClickDelay, err = parseFloat("click_delay", f.delayEntry.Text); err != nil {
		return s, err
	}
	if s.CheckInterval, err = parseFloat("check_interval", f.intervalEntry.Text); err != nil {
		return s, err
	}
	if s.MaxRetries, err = parseInt("max_retries", f.retriesEntry.Text); err != nil {
		return s, err
	}
	if s.TriggerThreshold, err = parseInt("trigger_threshold", f.thresholdEntry.Text); err != nil {
		return s, err
	}
	s.FireOnVanish = f.vanishCheck.Checked
	s.CountdownFormats = parseLines(f.formatsEntry.Text)
	s.TesseractPath = strings.TrimSpace(f.tesseractEntry.Text)

	return s, s.Validate()
}

// parseInts reads exactly n comma or space separated integers.
func parseInts(field, text string, n int) ([]int, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '[' || r == ']'
	})
	if len(fields) != n {
		return nil, apperr.Configuration(field, "expected %d numbers, got %q", n, text)
	}
	out := make([]int, n)
	for i, v := range fields {
		x, err := strconv.Atoi(v)
		if err != nil {
			return nil, apperr.Configuration(field, "%q is not an integer", v)
		}
		out[i] = x
	}
	return out, nil
}

func parseInt(field, text string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, apperr.Configuration(field, "%q is not an integer", text)
	}
	return v, nil
}

func parseFloat(field, text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, apperr.Configuration(field, "%q is not a number", text)
	}
	return v, nil
}

func parseLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func formatInts(v []int) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ", ")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
