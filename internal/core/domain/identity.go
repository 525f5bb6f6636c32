// Package domain concentra entidades e estruturas centrais do rotacionador de identidades.
package domain

import "sort"

// DisabledSecret é uma senha propositalmente inválida aplicada no roteador
// para forçar falha de autenticação e derrubar o enlace PPPoE.
const DisabledSecret = "DISABLED_EXCEEDED_LIMIT"

type Identity struct {
	Name   string
	Secret string
}

type Thresholds struct {
	Switch    int
	Available int
	Disable   int
}

// CandidateSet é a sequência fixa de identidades usada na busca cíclica.
// Depois de materializada, a ordem nunca muda durante a execução.
type CandidateSet []Identity

// NewCandidateSet materializa o mapa nome→senha em uma sequência ordenada por nome.
func NewCandidateSet(pool map[string]string) CandidateSet {
	names := make([]string, 0, len(pool))
	for name := range pool {
		names = append(names, name)
	}
	sort.Strings(names)

	set := make(CandidateSet, 0, len(names))
	for _, name := range names {
		set = append(set, Identity{Name: name, Secret: pool[name]})
	}
	return set
}

// IndexOf retorna a posição da identidade com o nome dado, ou -1 se ausente.
func (c CandidateSet) IndexOf(name string) int {
	for i, identity := range c {
		if identity.Name == name {
			return i
		}
	}
	return -1
}
