package board

// Size is the number of squares on the standard board.
const Size = 40

// JailIndex is where GO_TO_JAIL sends a player.
const JailIndex = 10

// PlayerColors assigns one colour per seat, in join order.
var PlayerColors = []string{"#ef4444", "#3b82f6", "#22c55e", "#facc15"}

const (
	colorBrown     = "#9f582a"
	colorLightBlue = "#aadef8"
	colorPink      = "#d946ef"
	colorOrange    = "#fb923c"
	colorRed       = "#ef4444"
	colorYellow    = "#facc15"
	colorGreen     = "#22c55e"
	colorDarkBlue  = "#3b82f6"
)

var railroadRent = []int{25, 50, 100, 200}

var layout = []Square{
	{ID: 0, Name: "Старт", Kind: KindGo},
	{ID: 1, Name: "Железный рудник", Kind: KindProperty, Price: 60, Rent: []int{2, 10, 30, 90, 160, 250}, Color: colorBrown},
	{ID: 2, Name: "Общественная казна", Kind: KindCommunityChest},
	{ID: 3, Name: "Угольная шахта", Kind: KindProperty, Price: 60, Rent: []int{4, 20, 60, 180, 320, 450}, Color: colorBrown},
	{ID: 4, Name: "Подоходный налог", Kind: KindTax, Amount: 200},
	{ID: 5, Name: "Северная железная дорога", Kind: KindRailroad, Price: 200, Rent: railroadRent},
	{ID: 6, Name: "Литейный цех", Kind: KindProperty, Price: 100, Rent: []int{6, 30, 90, 270, 400, 550}, Color: colorLightBlue},
	{ID: 7, Name: "Шанс", Kind: KindChance},
	{ID: 8, Name: "Кузнечный цех", Kind: KindProperty, Price: 100, Rent: []int{6, 30, 90, 270, 400, 550}, Color: colorLightBlue},
	{ID: 9, Name: "Прокатный стан", Kind: KindProperty, Price: 120, Rent: []int{8, 40, 100, 300, 450, 600}, Color: colorLightBlue},
	{ID: 10, Name: "Тюрьма", Kind: KindJail},
	{ID: 11, Name: "Коксохимзавод", Kind: KindProperty, Price: 140, Rent: []int{10, 50, 150, 450, 625, 750}, Color: colorPink},
	{ID: 12, Name: "Энергоузел", Kind: KindUtility, Price: 150},
	{ID: 13, Name: "Аглофабрика", Kind: KindProperty, Price: 140, Rent: []int{10, 50, 150, 450, 625, 750}, Color: colorPink},
	{ID: 14, Name: "Доменная печь", Kind: KindProperty, Price: 160, Rent: []int{12, 60, 180, 500, 700, 900}, Color: colorPink},
	{ID: 15, Name: "Речной порт", Kind: KindRailroad, Price: 200, Rent: railroadRent},
	{ID: 16, Name: "Трубный завод", Kind: KindProperty, Price: 180, Rent: []int{14, 70, 200, 550, 750, 950}, Color: colorOrange},
	{ID: 17, Name: "Общественная казна", Kind: KindCommunityChest},
	{ID: 18, Name: "Метизный завод", Kind: KindProperty, Price: 180, Rent: []int{14, 70, 200, 550, 750, 950}, Color: colorOrange},
	{ID: 19, Name: "Сталепрокат", Kind: KindProperty, Price: 200, Rent: []int{16, 80, 220, 600, 800, 1000}, Color: colorOrange},
	{ID: 20, Name: "Бесплатная парковка", Kind: KindFreeParking},
	{ID: 21, Name: "Завод ферросплавов", Kind: KindProperty, Price: 220, Rent: []int{18, 90, 250, 700, 875, 1050}, Color: colorRed},
	{ID: 22, Name: "Шанс", Kind: KindChance},
	{ID: 23, Name: "Никелевый комбинат", Kind: KindProperty, Price: 220, Rent: []int{18, 90, 250, 700, 875, 1050}, Color: colorRed},
	{ID: 24, Name: "Медеплавильный завод", Kind: KindProperty, Price: 240, Rent: []int{20, 100, 300, 750, 925, 1100}, Color: colorRed},
	{ID: 25, Name: "Южная железная дорога", Kind: KindRailroad, Price: 200, Rent: railroadRent},
	{ID: 26, Name: "Алюминиевый завод", Kind: KindProperty, Price: 260, Rent: []int{22, 110, 330, 800, 975, 1150}, Color: colorYellow},
	{ID: 27, Name: "Титановый комбинат", Kind: KindProperty, Price: 260, Rent: []int{22, 110, 330, 800, 975, 1150}, Color: colorYellow},
	{ID: 28, Name: "Логистика", Kind: KindUtility, Price: 150},
	{ID: 29, Name: "Вольфрамовый рудник", Kind: KindProperty, Price: 280, Rent: []int{24, 120, 360, 850, 1025, 1200}, Color: colorYellow},
	{ID: 30, Name: "Отправляйтесь в тюрьму", Kind: KindGoToJail},
	{ID: 31, Name: "Танковый завод", Kind: KindProperty, Price: 300, Rent: []int{26, 130, 390, 900, 1100, 1275}, Color: colorGreen},
	{ID: 32, Name: "Судоверфь", Kind: KindProperty, Price: 300, Rent: []int{26, 130, 390, 900, 1100, 1275}, Color: colorGreen},
	{ID: 33, Name: "Общественная казна", Kind: KindCommunityChest},
	{ID: 34, Name: "Авиазавод", Kind: KindProperty, Price: 320, Rent: []int{28, 150, 450, 1000, 1200, 1400}, Color: colorGreen},
	{ID: 35, Name: "Морской порт", Kind: KindRailroad, Price: 200, Rent: railroadRent},
	{ID: 36, Name: "Шанс", Kind: KindChance},
	{ID: 37, Name: "Металлургический холдинг", Kind: KindProperty, Price: 350, Rent: []int{35, 175, 500, 1100, 1300, 1500}, Color: colorDarkBlue},
	{ID: 38, Name: "Налог на роскошь", Kind: KindTax, Amount: 100},
	{ID: 39, Name: "Империя Стали", Kind: KindProperty, Price: 400, Rent: []int{50, 200, 600, 1400, 1700, 2000}, Color: colorDarkBlue},
}

// Default returns a fresh, unowned copy of the standard board.
func Default() []Square {
	return Clone(layout)
}

// ColorForSeat returns the palette colour for the zero-based seat index.
func ColorForSeat(seat int) string {
	if seat < 0 {
		seat = 0
	}
	return PlayerColors[seat%len(PlayerColors)]
}
