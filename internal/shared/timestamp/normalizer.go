// Package timestamp はアップストリームが返す日時表現（RFC-822 の GMT 文字列、ISO-8601、
// タイムゾーンなしのローカル時刻）を単一の時刻表現へ正規化し、IST の表示形式へ整形します。
package timestamp

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// IST はインド標準時（UTC+05:30、夏時間なし）です。
var IST = time.FixedZone("IST", 5*60*60+30*60)

// DisplayLayout はAPI利用者へ返す日時文字列の形式です。
// 例: "Monday, 02 Jan 2023 00:00:00 IST"
const DisplayLayout = "Monday, 02 Jan 2006 15:04:05 MST"

// ErrParse は認識できない日時表現を受け取ったことを示します。
var ErrParse = errors.New("unrecognized timestamp")

// ParseError はパースに失敗した入力値を保持します。errors.Is(err, ErrParse) が成立します。
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("timestamp: cannot parse %q", e.Input)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// gmtLayouts は "GMT" を含む文字列に適用するレイアウトです。
var gmtLayouts = []string{
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 MST",
	DisplayLayout,
	time.RFC850,
	time.UnixDate,
	"Mon Jan _2 15:04:05 2006 MST",
	time.RFC822,
}

// zonedLayouts はオフセット付きの ISO-8601 レイアウトです。
// 秒の後ろの小数部はレイアウトに無くても受け付けられます。
var zonedLayouts = []string{
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05-0700",
}

// naiveLayouts はオフセットを持たない ISO-8601 レイアウトです。
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Normalizer は日時のパースと表示形式への変換を行います。
// タイムゾーンを持たない入力は loc のローカル時刻として扱い、表示も loc で行います。
type Normalizer struct {
	loc *time.Location
}

// Default は取引所のタイムゾーン（IST）を使う Normalizer です。
var Default = NewNormalizer(IST)

// NewNormalizer は指定したタイムゾーンの Normalizer を生成します。nil の場合は IST を使います。
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = IST
	}
	return &Normalizer{loc: loc}
}

// Location は表示に使うタイムゾーンを返します。
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Parse は string、time.Time、*time.Time のいずれかを時刻に変換します。
// time.Time はそのまま返します。
func (n *Normalizer) Parse(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v != nil {
			return *v, nil
		}
	case string:
		return n.ParseString(v)
	}
	return time.Time{}, &ParseError{Input: fmt.Sprint(raw)}
}

// ParseString は文字列の日時表現をパースします。
//
//   - "GMT" を含む文字列は RFC-822 系の形式として UTC の時刻になります
//   - 末尾の "Z" は "+00:00" として扱います
//   - オフセットを持たない ISO-8601 文字列は Normalizer のタイムゾーンで解釈します
func (n *Normalizer) ParseString(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, &ParseError{Input: raw}
	}

	if strings.Contains(s, "GMT") {
		for _, layout := range gmtLayouts {
			// UTC ロケーションでは "GMT" は既知の略称ではないため、オフセット0として記録される
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, &ParseError{Input: raw}
	}

	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, n.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ParseError{Input: raw}
}

// Render は時刻を Normalizer のタイムゾーンへ変換し、DisplayLayout で整形します。
func (n *Normalizer) Render(t time.Time) string {
	return t.In(n.loc).Format(DisplayLayout)
}

// RenderRaw は生の日時表現をパースして整形します。
// パースできない場合は入力をそのまま返し、エラーを併せて返します。
func (n *Normalizer) RenderRaw(raw string) (string, error) {
	t, err := n.ParseString(raw)
	if err != nil {
		return raw, err
	}
	return n.Render(t), nil
}

// ToCalendarDate は入力が持つタイムゾーンでの暦日を返します。
// IST へ変換してから日付を取ることはしません（アップストリームの日境界を保つため）。
func (n *Normalizer) ToCalendarDate(raw any) (civil.Date, error) {
	t, err := n.Parse(raw)
	if err != nil {
		return civil.Date{}, err
	}
	return civil.DateOf(t), nil
}

// Today は Normalizer のタイムゾーンにおける now の暦日を返します。
func (n *Normalizer) Today(now time.Time) civil.Date {
	return civil.DateOf(now.In(n.loc))
}
