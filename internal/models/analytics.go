package models

type HourlySales struct {
	Hour   string  `json:"hour"`
	Orders int     `json:"orders"`
	Sales  float64 `json:"sales"`
}

type TopProduct struct {
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	UnitsSold int64   `json:"unitsSold"`
	Revenue   float64 `json:"revenue"`
}

type SalesAnalytics struct {
	TotalSales          float64       `json:"totalSales"`
	TotalOrders         int           `json:"totalOrders"`
	AverageOrderValue   float64       `json:"averageOrderValue"`
	AverageCheckoutTime float64       `json:"averageCheckoutTime"`
	PeakHour            string        `json:"peakHour,omitempty"`
	HourlyBreakdown     []HourlySales `json:"hourlyBreakdown"`
	TopProducts         []TopProduct  `json:"topProducts"`
}

type ProductPerformance struct {
	ProductID  string  `json:"productId"`
	Name       string  `json:"name"`
	Sold       int64   `json:"sold"`
	Revenue    float64 `json:"revenue"`
	OrderCount int     `json:"orderCount"`
}

// TrafficStats mirrors the mock numbers the storefront dashboard shows;
// there is no real traffic pipeline behind it.
type TrafficStats struct {
	TotalVisitors          int     `json:"totalVisitors"`
	UniqueVisitors         int     `json:"uniqueVisitors"`
	PeakTrafficTime        string  `json:"peakTrafficTime"`
	AverageSessionDuration int     `json:"averageSessionDuration"`
	BounceRate             float64 `json:"bounceRate"`
	ConversionRate         float64 `json:"conversionRate"`
}
