package graph

// resolveMentions verknüpft Drugs mit den Titeln, die sie erwähnen, und überträgt danach
// jede Erwähnung in einer Publikation oder Studie auf deren Journal. Der zweite Durchlauf
// beginnt erst nach dem ersten und geht nur einen Schritt weit.
func resolveMentions(g *Graph, drugs []*Drug, targets []titled) error {
	for _, d := range drugs {
		for _, t := range targets {
			if !d.Mentions(t.TitleText()) {
				continue
			}
			link, err := NewMentionedLink(d, t, t.PublishedAt())
			if err != nil {
				return err
			}
			g.AddLink(link)
		}
	}

	publishedIn := make(map[int]*Link)
	var mentions []*Link
	for _, l := range g.Links() {
		switch {
		case l.Kind() == LinkPublished:
			if _, ok := publishedIn[l.NodeB().NodeID()]; !ok {
				publishedIn[l.NodeB().NodeID()] = l
			}
		case l.MentionKind() == MentionPublication, l.MentionKind() == MentionClinicalTrial:
			mentions = append(mentions, l)
		}
	}

	for _, m := range mentions {
		pub, ok := publishedIn[m.NodeB().NodeID()]
		if !ok {
			continue
		}
		link, err := NewMentionedLink(m.NodeA(), pub.NodeA(), pub.NodeB().(titled).PublishedAt())
		if err != nil {
			return err
		}
		g.AddLink(link)
	}
	return nil
}
