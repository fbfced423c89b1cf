package entity

// RenderedBar はレスポンス用に日時を整形済みのローソク足です。
type RenderedBar struct {
	Date   string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// HistoricalResult は過去データ照会の結果です。
// Bars が空でも正常な結果であり、その場合は Notes に案内が入ります。
type HistoricalResult struct {
	Symbol      string
	Name        string
	Exchange    string
	Token       int64
	Range       DateRange
	Frequency   Frequency
	Interval    Interval
	Bars        []RenderedBar
	LastUpdated string
	Timezone    string
	Notes       []string
}

// IndicatorResult はテクニカル指標の計算結果です。
// 系列が計算できない場合 Value は nil です。
type IndicatorResult struct {
	Symbol     string
	Indicator  string
	Window     int
	PriceType  string
	Value      *float64
	SeriesTail []float64
}
