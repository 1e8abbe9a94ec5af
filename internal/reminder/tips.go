package reminder

import "time"

// Tips rotate by day of month.
var Tips = []string{
	"💡 Tip: Regular feeding helps establish your baby's daily routine.",
	"💡 Tip: Don't forget massage - it supports your baby's development.",
	"💡 Tip: Keep the nursery between 20 and 22°C.",
	"💡 Tip: Daily walks help strengthen your baby's immune system.",
	"💡 Tip: Read books to your baby - it builds speech and imagination.",
}

func TipOfDay(now time.Time) string {
	return Tips[now.Day()%len(Tips)]
}
