package services

// Categories is the static award configuration for the event. The voting
// client ships the same list; tallies stored under any other category or
// nominee are kept in the store but never exported.
var Categories = []Category{
	{Name: "Most Brilliant Diplomat", Icon: "🎓", Nominees: []string{"Ogunlade Pelumi", "Christian Ogala", "Daibu Fareedah", "Solomon Stephen", "Nicholas Mirabel"}},
	{Name: "Most Handsome Diplomat", Icon: "👔", Nominees: []string{"Adebayo Julius", "Salimon Farouq", "Solomon Stephen", "Olanrewaju Bolu"}},
	{Name: "Most Beautiful Diplomat", Icon: "👗", Nominees: []string{"Nwanedo Chidera", "Donatus Chidera", "Shobayo Simbi", "Nicholas Mirabel", "Seyi Gandonu"}},
	{Name: "Most Reserved Diplomat (Male)", Icon: "🤐", Nominees: []string{"MOR", "Christian Ogala", "Biggie"}},
	{Name: "Most Reserved Diplomat (Female)", Icon: "🤫", Nominees: []string{"Treasure Ebube", "Solomon Joy", "Temmy"}},
	{Name: "Most Talented Diplomat", Icon: "🎭", Nominees: []string{"Ernest Henry", "Bolu Olanrewaju", "Ugochukwu Christsanctus", "Solomon Stephen"}},
	{Name: "Most Creative Diplomat", Icon: "🎨", Nominees: []string{"Daibu Fareedah", "MOR", "Solomon Stephen", "Ernest Henry"}},
	{Name: "Most Social Diplomat (Male)", Icon: "🎉", Nominees: []string{"Ernest Henry", "Ayo Salimon Farouq", "Ugo Christsanctus"}},
	{Name: "Most Social Diplomat (Female)", Icon: "💃", Nominees: []string{"Debby Donatus", "Kowiat", "Abimbola"}},
	{Name: "Most Entrepreneurial Diplomat", Icon: "💼", Nominees: []string{"Nicholas Mirabel", "Debby Donatus", "MOH", "Olakunle Kazeem"}},
	{Name: "Most Popular Diplomat (Male)", Icon: "⭐", Nominees: []string{"Henry Ernest", "Ugochukwu Christsanctus", "Adebayo Julius"}},
	{Name: "Most Popular Diplomat (Female)", Icon: "✨", Nominees: []string{"Ashley Favour", "Shobayo Simbi", "Gift"}},
	{Name: "Favorite Diploma Lecturer", Icon: "📚", Nominees: []string{"Mr. Wilson", "Prof. Falode", "Mr. Femi"}},
	{Name: "Most Expensive Diplomat (Male)", Icon: "💎", Nominees: []string{"Kazeem Olakunle", "Ayo Briefcase Guy"}},
	{Name: "Most Expensive Diplomat (Female)", Icon: "💍", Nominees: []string{"Tess Nwanedo Chidera", "Chidera Donatus"}},
	{Name: "Diploma Fashionista (Male)", Icon: "🕴️", Nominees: []string{"Henry Ernest", "Bolu Olanrewaju", "Christian Farouq", "Emmy Indebted"}},
	{Name: "Diploma Fashionista (Female)", Icon: "👠", Nominees: []string{"Kowiat", "Tess", "Ifeoma", "Simbi"}},
	{Name: "Most Outstanding Diplomat", Icon: "🏆", Nominees: []string{"Solomon Stephen", "Mr. Chris", "Ernest Henry", "Nicholas Mirabel", "Daibu Fareedah"}},
}
