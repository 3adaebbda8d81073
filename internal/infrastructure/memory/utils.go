package memory

import (
	"sort"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

func sortByDate(list []*entity.StockMovement, ascending bool) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.Date.Equal(b.Date) {
			if ascending {
				return a.Date.Before(b.Date)
			}
			return a.Date.After(b.Date)
		}
		if ascending {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(list) {
		return []T{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

func sortBalances(list []entity.StockBalance) {
	sort.Slice(list, func(i, j int) bool { return list[i].ProductID < list[j].ProductID })
}
