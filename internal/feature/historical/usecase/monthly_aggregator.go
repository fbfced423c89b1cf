package usecase

import (
	"sort"

	"market_dashboard/internal/feature/historical/domain/entity"
)

// LastTradingDayPerMonth は r に含まれる日足を暦月ごとにまとめ、各月の最終取引日のバーだけを残します。
// 結果は月の昇順で、1か月につき1本です。バーの値は集約せずそのまま使います。
func LastTradingDayPerMonth(series entity.DailySeries, r entity.DateRange) entity.DailySeries {
	latest := make(map[entity.MonthKey]entity.Bar)
	for _, b := range series {
		if !r.Contains(b.TradingDay) {
			continue
		}
		k := entity.MonthKeyOf(b.TradingDay)
		if cur, ok := latest[k]; !ok || b.TradingDay.After(cur.TradingDay) {
			latest[k] = b
		}
	}

	keys := make([]entity.MonthKey, 0, len(latest))
	for k := range latest {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	out := make(entity.DailySeries, 0, len(keys))
	for _, k := range keys {
		out = append(out, latest[k])
	}
	return out
}
